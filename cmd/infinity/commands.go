package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"infinity/internal/dagster"
	"infinity/internal/decisiontable"
	"infinity/internal/domain"
	"infinity/internal/engine"
	"infinity/internal/gitbrowser"
	"infinity/internal/repo"
)

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Load pipelines, runs and schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), true, func(ctx context.Context, e *engine.Engine) error {
				st := e.Dashboard.State()
				if isJSON() {
					return printJSON(st)
				}
				rows := make([]table.Row, 0, len(st.Pipelines))
				for _, p := range st.Pipelines {
					rows = append(rows, table.Row{p.ID, p.Name})
				}
				if err := renderTable(st, table.Row{"Pipeline", "Name"}, rows); err != nil {
					return err
				}
				return printRuns(st.Runs)
			})
		},
	}
}

func runsCmd() *cobra.Command {
	runs := &cobra.Command{Use: "runs", Short: "List, launch and retry runs"}
	runs.AddCommand(runsListCmd())
	runs.AddCommand(runsLaunchCmd())
	runs.AddCommand(runsRetryCmd())
	runs.AddCommand(runsLogsCmd())
	return runs
}

func runsListCmd() *cobra.Command {
	var status, query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), true, func(ctx context.Context, e *engine.Engine) error {
				return printRuns(dagster.FilterRuns(e.Dashboard.Runs(), strings.ToUpper(status), query))
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter (SUCCESS, FAILED, STARTED, STARTING)")
	cmd.Flags().StringVar(&query, "q", "", "search run id or pipeline")
	return cmd
}

func printRuns(runs []domain.Run) error {
	points := dagster.ChartData(runs, float64(time.Now().UnixMilli()))
	rows := make([]table.Row, 0, len(runs))
	for i, r := range runs {
		rows = append(rows, table.Row{r.ID, r.PipelineName, dagster.StatusBadge(r.Status),
			fmt.Sprintf("%.1fs", points[i].Duration), dagster.ReviewBadge(r)})
	}
	return renderTable(runs, table.Row{"ID", "Pipeline", "Status", "Duration", "Review"}, rows)
}

func runsLaunchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "launch <pipeline>",
		Short: "Launch a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), true, func(ctx context.Context, e *engine.Engine) error {
				id, err := e.LaunchRun(ctx, args[0], actor())
				if err != nil {
					return err
				}
				fmt.Println(e.Dashboard.Message())
				return printJSONOrTable(map[string]string{"runId": id})
			})
		},
	}
}

func runsRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <run-id>",
		Short: "Launch the pipeline of a run again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), true, func(ctx context.Context, e *engine.Engine) error {
				id, err := e.RetryRun(ctx, args[0], actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]string{"runId": id})
			})
		},
	}
}

func runsLogsCmd() *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "logs <run-id>",
		Short: "Stream the logs of a run for a while",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				st, err := e.Logs.Start(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "subscribed to %s (%s %s)\n", st.RunID, st.State, st.Protocol)
				select {
				case <-ctx.Done():
				case <-time.After(wait):
				}
				st = e.Logs.Stop()
				rows := make([]table.Row, 0, len(st.Logs))
				for _, m := range st.Logs {
					rows = append(rows, table.Row{m.Timestamp, m.Level, m.Text})
				}
				return renderTable(st, table.Row{"Time", "Level", "Message"}, rows)
			})
		},
	}
	cmd.Flags().DurationVar(&wait, "for", 10*time.Second, "how long to collect logs")
	return cmd
}

func schedulesCmd() *cobra.Command {
	sch := &cobra.Command{Use: "schedules", Short: "Manage schedules"}
	sch.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), true, func(ctx context.Context, e *engine.Engine) error {
				return printSchedules(e.Dashboard.State().Schedules)
			})
		},
	})

	var name, pipeline, cron string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), true, func(ctx context.Context, e *engine.Engine) error {
				s, err := e.CreateSchedule(ctx, name, pipeline, cron, actor())
				if err != nil {
					return err
				}
				return printSchedules([]domain.Schedule{s})
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "schedule name")
	create.Flags().StringVar(&pipeline, "pipeline", "", "pipeline name")
	create.Flags().StringVar(&cron, "cron", "", "cron expression, e.g. \"0 6 * * *\"")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("pipeline")
	_ = create.MarkFlagRequired("cron")
	sch.AddCommand(create)

	var stop bool
	toggle := &cobra.Command{
		Use:   "toggle <name>",
		Short: "Start or stop a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), true, func(ctx context.Context, e *engine.Engine) error {
				s, err := e.ToggleSchedule(ctx, args[0], stop, actor())
				if err != nil {
					return err
				}
				return printSchedules([]domain.Schedule{s})
			})
		},
	}
	toggle.Flags().BoolVar(&stop, "stop", false, "stop instead of start")
	sch.AddCommand(toggle)
	return sch
}

func printSchedules(items []domain.Schedule) error {
	rows := make([]table.Row, 0, len(items))
	for _, s := range items {
		state := "running"
		if s.IsStopped {
			state = "stopped"
		}
		rows = append(rows, table.Row{s.Name, s.PipelineName, s.CronSchedule, state})
	}
	return renderTable(items, table.Row{"Name", "Pipeline", "Cron", "State"}, rows)
}

func reviewsCmd() *cobra.Command {
	rv := &cobra.Command{Use: "reviews", Short: "Approve or deny runs flagged for review"}
	rv.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "Runs awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), true, func(ctx context.Context, e *engine.Engine) error {
				return printRuns(e.Reviews.Pending())
			})
		},
	})
	rv.AddCommand(decideCmd("approve", domain.ReviewApproved))
	rv.AddCommand(decideCmd("deny", domain.ReviewDenied))

	var n int
	history := &cobra.Command{
		Use:   "history",
		Short: "Recorded decisions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				h, err := e.ReviewHistory(ctx, n)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(h.Records))
				for _, r := range h.Records {
					rows = append(rows, table.Row{r.RunID, r.Decision, r.Reviewer, r.ReviewedAt, r.Feedback})
				}
				return renderTable(h.Records, table.Row{"Run", "Decision", "Reviewer", "At", "Feedback"}, rows)
			})
		},
	}
	history.Flags().IntVar(&n, "n", 0, "number of decisions")
	rv.AddCommand(history)

	rv.AddCommand(&cobra.Command{
		Use:   "reviewers",
		Short: "Reviewer activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				stats := e.Reviews.Reviewers()
				rows := make([]table.Row, 0, len(stats))
				for _, s := range stats {
					rows = append(rows, table.Row{s.Reviewer, s.PRsReviewed, s.AvgReviewTime, s.LastReview})
				}
				return renderTable(stats, table.Row{"Reviewer", "PRs reviewed", "Avg time", "Last review"}, rows)
			})
		},
	})
	return rv
}

func decideCmd(use string, decision domain.ReviewStatus) *cobra.Command {
	var feedback string
	cmd := &cobra.Command{
		Use:   use + " <run-id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a pending run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), true, func(ctx context.Context, e *engine.Engine) error {
				out, err := e.Decide(ctx, args[0], decision, actor(), feedback)
				if err != nil {
					return err
				}
				fmt.Println(out.Message)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&feedback, "feedback", "", "review feedback")
	return cmd
}

func prsCmd() *cobra.Command {
	var tab, query string
	cmd := &cobra.Command{
		Use:   "prs",
		Short: "Pull requests by tab and search text",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				prs := e.Reviews.PullRequests(domain.PRStatus(tab), query)
				rows := make([]table.Row, 0, len(prs))
				for _, p := range prs {
					rows = append(rows, table.Row{p.Title, p.Status, p.Author, p.Repo, p.Updated, strings.Join(p.Labels, ",")})
				}
				return renderTable(prs, table.Row{"Title", "Status", "Author", "Repo", "Updated", "Labels"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&tab, "tab", string(domain.PROpen), "Open or Closed")
	cmd.Flags().StringVar(&query, "q", "", "search title, author or repo")
	return cmd
}

// Table edits restore the saved snapshot, apply the change and save again.
func tableCmd() *cobra.Command {
	tbl := &cobra.Command{Use: "table", Short: "Edit and evaluate the decision table"}
	tbl.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the saved table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				return printTable(e.Table.View())
			})
		},
	})
	tbl.AddCommand(&cobra.Command{
		Use:   "title <title>",
		Short: "Rename the table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editTable(cmd.Context(), func(e *engine.Engine) error {
				e.Table.SetTitle(args[0])
				return nil
			})
		},
	})
	tbl.AddCommand(&cobra.Command{
		Use:   "add-row",
		Short: "Append an empty rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return editTable(cmd.Context(), func(e *engine.Engine) error {
				e.Table.AddRow()
				return nil
			})
		},
	})
	tbl.AddCommand(&cobra.Command{
		Use:   "add-column",
		Short: "Append a condition column",
		RunE: func(cmd *cobra.Command, args []string) error {
			return editTable(cmd.Context(), func(e *engine.Engine) error {
				e.Table.AddColumn()
				return nil
			})
		},
	})

	var row, col int
	var value string
	cell := &cobra.Command{
		Use:   "set-cell",
		Short: "Set one cell",
		RunE: func(cmd *cobra.Command, args []string) error {
			return editTable(cmd.Context(), func(e *engine.Engine) error {
				return e.Table.UpdateCell(row, col, value)
			})
		},
	}
	cell.Flags().IntVar(&row, "row", 0, "row index")
	cell.Flags().IntVar(&col, "col", 0, "column index")
	cell.Flags().StringVar(&value, "value", "", "cell value")
	tbl.AddCommand(cell)

	tbl.AddCommand(&cobra.Command{
		Use:   "evaluate <input>...",
		Short: "Find the first rule matching the inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				ev, err := e.Table.Evaluate(args)
				if err != nil {
					return err
				}
				if !ev.Matched {
					fmt.Println("no rule matched")
					return nil
				}
				return printJSONOrTable(ev)
			})
		},
	})
	tbl.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Run every test case",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				sum := e.Table.RunAll()
				v := e.Table.View()
				rows := make([]table.Row, 0, len(v.TestCases))
				for i, tc := range v.TestCases {
					result := ""
					if tc.Result != nil {
						result = *tc.Result
					}
					rows = append(rows, table.Row{i, strings.Join(tc.Inputs, " | "), tc.Expected, result, tc.Status})
				}
				if err := renderTable(sum, table.Row{"#", "Inputs", "Expected", "Actual", "Result"}, rows); err != nil {
					return err
				}
				fmt.Printf("%d passed, %d failed, %d total\n", sum.Passed, sum.Failed, sum.Total)
				return nil
			})
		},
	})
	tbl.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace the table with a snapshot file and save it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				if _, err := e.LoadTable(ctx, data, actor()); err != nil {
					return err
				}
				entry, err := e.SaveTable(ctx, actor())
				if err != nil {
					return err
				}
				fmt.Println(entry.Summary)
				return nil
			})
		},
	})
	tbl.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Print the table snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				return printJSON(e.Table.Snapshot())
			})
		},
	})
	tbl.AddCommand(&cobra.Command{
		Use:   "changelog",
		Short: "Saved versions of the table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				entries, err := e.ChangeLog(ctx)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(entries))
				for _, c := range entries {
					rows = append(rows, table.Row{c.TS, c.ActorID, c.Summary})
				}
				return renderTable(entries, table.Row{"At", "Actor", "Summary"}, rows)
			})
		},
	})
	return tbl
}

func editTable(ctx context.Context, fn func(*engine.Engine) error) error {
	return withEngine(ctx, false, func(ctx context.Context, e *engine.Engine) error {
		if err := fn(e); err != nil {
			return err
		}
		if _, err := e.SaveTable(ctx, actor()); err != nil {
			return err
		}
		return printTable(e.Table.View())
	})
}

func printTable(v decisiontable.View) error {
	header := table.Row{"#"}
	for _, c := range v.Columns {
		header = append(header, fmt.Sprintf("%s (%s %s)", c.Name, c.Type, c.Condition))
	}
	header = append(header, v.OutputColumn)
	rows := make([]table.Row, 0, len(v.Rows))
	for i, r := range v.Rows {
		row := table.Row{i + 1}
		for _, cell := range r {
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	if !isJSON() {
		fmt.Println(v.Title)
	}
	return renderTable(v, header, rows)
}

func dmnCmd() *cobra.Command {
	var name, out string
	d := &cobra.Command{Use: "dmn", Short: "Decision model graph"}
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the graph as DMN 1.3 XML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				data, err := e.Graph.ExportXML(name)
				if err != nil {
					return err
				}
				if out == "" {
					_, err = os.Stdout.Write(data)
					return err
				}
				return os.WriteFile(out, data, 0o644)
			})
		},
	}
	export.Flags().StringVar(&name, "name", "Infinity Decision Model", "model name")
	export.Flags().StringVarP(&out, "out", "o", "", "output file (stdout when empty)")
	d.AddCommand(export)
	d.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Nodes and edges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				v := e.Graph.View()
				rows := make([]table.Row, 0, len(v.Nodes))
				for _, n := range v.Nodes {
					rows = append(rows, table.Row{n.ID, n.Type, n.Label, fmt.Sprintf("%.0f,%.0f", n.X, n.Y)})
				}
				return renderTable(v, table.Row{"ID", "Type", "Label", "Position"}, rows)
			})
		},
	})
	return d
}

func shellCmd() *cobra.Command {
	sh := &cobra.Command{Use: "shell", Short: "Repository, branch and commits"}
	sh.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Commit history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				st := e.Shell.State()
				rows := make([]table.Row, 0, len(st.Commits))
				for _, c := range st.Commits {
					rows = append(rows, table.Row{c.Hash, c.Branch, c.Author, c.Time, c.Message})
				}
				return renderTable(st.Commits, table.Row{"Hash", "Branch", "Author", "Time", "Message"}, rows)
			})
		},
	})

	var message, description string
	commit := &cobra.Command{
		Use:   "commit",
		Short: "Commit the pending changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				c, err := e.Commit(ctx, message, description, actor())
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	commit.Flags().StringVarP(&message, "message", "m", "", "commit message")
	commit.Flags().StringVar(&description, "description", "", "commit description")
	sh.AddCommand(commit)
	return sh
}

func reposCmd() *cobra.Command {
	rp := &cobra.Command{Use: "repos", Short: "Browse repositories"}
	var query string
	list := &cobra.Command{
		Use:   "list",
		Short: "Search repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				names := e.Browser.Names(query)
				rows := make([]table.Row, 0, len(names))
				for _, n := range names {
					rows = append(rows, table.Row{n})
				}
				return renderTable(names, table.Row{"Repository"}, rows)
			})
		},
	}
	list.Flags().StringVar(&query, "q", "", "search text")
	rp.AddCommand(list)

	var tab string
	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a repository tab",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				v, err := e.Browser.Select(args[0])
				if err != nil {
					return err
				}
				if v, err = e.Browser.SetTab(gitbrowser.Tab(tab)); err != nil {
					return err
				}
				return printRepo(v)
			})
		},
	}
	show.Flags().StringVar(&tab, "tab", string(gitbrowser.TabCode), "code, commits or pulls")
	rp.AddCommand(show)
	return rp
}

func printRepo(v gitbrowser.View) error {
	r := v.Repository
	var header table.Row
	var rows []table.Row
	switch v.Tab {
	case gitbrowser.TabCommits:
		header = table.Row{"Hash", "Author", "Time", "Message"}
		for _, c := range r.Commits {
			rows = append(rows, table.Row{c.ID, c.Author, c.Time, c.Message})
		}
	case gitbrowser.TabPulls:
		header = table.Row{"#", "Status", "Author", "Title"}
		for _, p := range r.PullRequests {
			rows = append(rows, table.Row{p.ID, p.Status, p.Author, p.Title})
		}
	default:
		header = table.Row{"File", "Type", "Modified"}
		for _, f := range r.Files {
			rows = append(rows, table.Row{f.Name, f.Type, f.Modified})
		}
	}
	if !isJSON() {
		fmt.Printf("%s (%s, %d stars) %s\n", r.Name, r.Language, r.Stars, r.Description)
	}
	return renderTable(v, header, rows)
}

func reportCmd() *cobra.Command {
	var rangeSel, team string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Model health and adoption insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				ins, err := e.Insights(rangeSel, team)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(ins.Cards))
				for _, c := range ins.Cards {
					rows = append(rows, table.Row{c.Title, c.Value})
				}
				if !isJSON() {
					fmt.Printf("%s, %s: %d adopters\n", ins.Range, ins.Team, ins.TotalAdopters)
				}
				return renderTable(ins, table.Row{"Metric", "Value"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&rangeSel, "range", "", "7d, 30d, 90d or 1y")
	cmd.Flags().StringVar(&team, "team", "", "All teams, Platform, ML or Product")
	return cmd
}

func copilotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copilot <question>",
		Short: "Ask the rule assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				msg, err := e.Copilot.Send(strings.Join(args, " "))
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(msg)
				}
				fmt.Println(msg.Content)
				return nil
			})
		},
	}
}

func eventsCmd() *cobra.Command {
	ev := &cobra.Command{Use: "events", Short: "Event log"}
	var n int
	var f repo.EventFilter
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(ctx context.Context, e *engine.Engine) error {
				items, err := e.RecentEvents(ctx, n, f)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(items))
				for _, it := range items {
					rows = append(rows, table.Row{it.ID, it.TS, it.Type, it.EntityKind, it.EntityID, it.ActorID})
				}
				return renderTable(items, table.Row{"ID", "At", "Type", "Kind", "Entity", "Actor"}, rows)
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	tail.Flags().StringVar(&f.Type, "type", "", "event type filter")
	tail.Flags().StringVar(&f.EntityKind, "entity-kind", "", "entity kind")
	tail.Flags().StringVar(&f.EntityID, "entity-id", "", "entity id")
	ev.AddCommand(tail)
	return ev
}
