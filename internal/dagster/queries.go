package dagster

const (
	queryPipelines = `query Pipelines { pipelinesOrError { __typename ... on PipelineConnection { nodes { id name modes { name } } } } }`

	queryRecentRuns = `query Runs($limit: Int!) { runsOrError(limit: $limit) { __typename ... on Runs { results { id status startTime endTime pipelineName } } } }`

	querySchedules = `query Schedules { schedulesOrError { __typename ... on Schedules { results { name cronSchedule pipelineName isStopped } } } }`

	mutationLaunch = `mutation Launch($pipelineName: String!, $retryRunId: String) { launchPipelineExecution(executionParams: { selector: { pipelineName: $pipelineName }, parentRunId: $retryRunId }) { __typename ... on LaunchRunSuccess { run { id } } ... on PythonError { message } } }`

	mutationToggleSchedule = `mutation ToggleSchedule($name: String!, $shouldStop: Boolean!) { toggleScheduleExecution(scheduleName: $name, shouldStop: $shouldStop) { __typename ... on ScheduleToggleSuccess { schedule { name isStopped } } ... on PythonError { message } } }`

	mutationCreateSchedule = `mutation CreateSchedule($name: String!, $pipelineName: String!, $cron: String!) { createSchedule(scheduleName: $name, pipelineName: $pipelineName, cronSchedule: $cron) { __typename ... on ScheduleCreationSuccess { schedule { name } } ... on PythonError { message } } }`

	// SubscriptionRunLogs is the log subscription document. Servers differ
	// in what they expose; this is the common Dagster shape.
	SubscriptionRunLogs = `subscription Logs($runId: ID!) { pipelineRunLogs(runId: $runId) { messages { level timestamp text } } }`
)
