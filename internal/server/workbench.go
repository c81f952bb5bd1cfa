package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"infinity/internal/copilot"
	"infinity/internal/domain"
	"infinity/internal/engine"
	"infinity/internal/gitbrowser"
	"infinity/internal/reporting"
	"infinity/internal/shell"
)

func registerShell(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-shell",
		Method:      http.MethodGet,
		Path:        "/shell",
		Summary:     "Repository, branch, tabs and commit history",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body shell.State `json:"body"`
	}, error) {
		return &struct {
			Body shell.State `json:"body"`
		}{Body: e.Shell.State()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "patch-shell",
		Method:      http.MethodPatch,
		Path:        "/shell",
		Summary:     "Switch repository, branch, tab or editor mode",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body shell.Update `json:"body"`
	}) (*struct {
		Body shell.State `json:"body"`
	}, error) {
		st, err := e.Shell.Patch(input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body shell.State `json:"body"`
		}{Body: st}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-commit",
		Method:        http.MethodPost,
		Path:          "/shell/commits",
		Summary:       "Commit the pending changes",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CommitRequest `json:"body"`
	}) (*struct {
		Body domain.Commit `json:"body"`
	}, error) {
		c, err := e.Commit(ctx, input.Body.Message, input.Body.Description, actorID(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Commit `json:"body"`
		}{Body: c}, nil
	})
}

func registerRepos(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-repos",
		Method:      http.MethodGet,
		Path:        "/repos",
		Summary:     "Search repositories",
	}, func(ctx context.Context, input *struct {
		Query string `query:"q"`
	}) (*struct {
		Body ReposResponse `json:"body"`
	}, error) {
		cur, err := e.Browser.Current()
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReposResponse `json:"body"`
		}{Body: ReposResponse{Names: e.Browser.Names(input.Query), Current: cur}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-repo",
		Method:      http.MethodGet,
		Path:        "/repos/{name}",
		Summary:     "Select a repository",
		Description: "Selecting a different repository resets the tab to code unless tab is given.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Name string `path:"name"`
		Tab  string `query:"tab" enum:"code,commits,pulls"`
	}) (*struct {
		Body gitbrowser.View `json:"body"`
	}, error) {
		v, err := e.Browser.Select(input.Name)
		if err == nil && input.Tab != "" {
			v, err = e.Browser.SetTab(gitbrowser.Tab(input.Tab))
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body gitbrowser.View `json:"body"`
		}{Body: v}, nil
	})
}

func registerInsights(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-insights",
		Method:      http.MethodGet,
		Path:        "/insights",
		Summary:     "Model health and adoption insights",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Range string `query:"range" enum:"7d,30d,90d,1y"`
		Team  string `query:"team"`
	}) (*struct {
		Body reporting.Insights `json:"body"`
	}, error) {
		ins, err := e.Insights(input.Range, input.Team)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body reporting.Insights `json:"body"`
		}{Body: ins}, nil
	})
}

func registerCopilot(api huma.API, e *engine.Engine) {
	type conversation struct {
		Reply    *copilot.Message  `json:"reply,omitempty"`
		Messages []copilot.Message `json:"messages"`
	}

	huma.Register(api, huma.Operation{
		OperationID: "copilot-send",
		Method:      http.MethodPost,
		Path:        "/copilot/messages",
		Summary:     "Ask the rule assistant",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CopilotRequest `json:"body"`
	}) (*struct {
		Body conversation `json:"body"`
	}, error) {
		reply, err := e.Copilot.Send(input.Body.Message)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body conversation `json:"body"`
		}{Body: conversation{Reply: &reply, Messages: e.Copilot.Messages()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "copilot-clear",
		Method:      http.MethodDelete,
		Path:        "/copilot/messages",
		Summary:     "Start a new conversation",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body conversation `json:"body"`
	}, error) {
		return &struct {
			Body conversation `json:"body"`
		}{Body: conversation{Messages: e.Copilot.Clear()}}, nil
	})
}
