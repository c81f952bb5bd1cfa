package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"infinity/internal/decisiontable"
	"infinity/internal/dmn"
	"infinity/internal/domain"
	"infinity/internal/engine"
)

type tableBody struct {
	Body decisiontable.View `json:"body"`
}

func tableView(e *engine.Engine) *tableBody {
	return &tableBody{Body: e.Table.View()}
}

func registerTable(api huma.API, e *engine.Engine) {
	type indexPath struct {
		Index int `path:"index" minimum:"0"`
	}

	huma.Register(api, huma.Operation{
		OperationID: "get-table",
		Method:      http.MethodGet,
		Path:        "/table",
		Summary:     "Decision table",
	}, func(ctx context.Context, _ *struct{}) (*tableBody, error) {
		return tableView(e), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-table-title",
		Method:      http.MethodPut,
		Path:        "/table/title",
		Summary:     "Rename the table",
	}, func(ctx context.Context, input *struct {
		Body TitleRequest `json:"body"`
	}) (*tableBody, error) {
		e.Table.SetTitle(input.Body.Title)
		return tableView(e), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-column",
		Method:      http.MethodPost,
		Path:        "/table/columns",
		Summary:     "Append a condition column",
	}, func(ctx context.Context, _ *struct{}) (*tableBody, error) {
		e.Table.AddColumn()
		return tableView(e), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-column",
		Method:      http.MethodPatch,
		Path:        "/table/columns/{index}",
		Summary:     "Change a column name, type or condition",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Index int                `path:"index" minimum:"0"`
		Body  ColumnPatchRequest `json:"body"`
	}) (*tableBody, error) {
		if err := e.Table.UpdateColumn(input.Index, input.Body.Field, input.Body.Value); err != nil {
			return nil, handleError(err)
		}
		return tableView(e), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-column",
		Method:      http.MethodDelete,
		Path:        "/table/columns/{index}",
		Summary:     "Remove a column",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *indexPath) (*tableBody, error) {
		if err := e.Table.RemoveColumn(input.Index); err != nil {
			return nil, handleError(err)
		}
		return tableView(e), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-row",
		Method:      http.MethodPost,
		Path:        "/table/rows",
		Summary:     "Append an empty rule",
	}, func(ctx context.Context, _ *struct{}) (*tableBody, error) {
		e.Table.AddRow()
		return tableView(e), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-row",
		Method:      http.MethodDelete,
		Path:        "/table/rows/{index}",
		Summary:     "Remove a rule",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *indexPath) (*tableBody, error) {
		if err := e.Table.RemoveRow(input.Index); err != nil {
			return nil, handleError(err)
		}
		return tableView(e), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-cell",
		Method:      http.MethodPut,
		Path:        "/table/cells",
		Summary:     "Set a cell value",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CellRequest `json:"body"`
	}) (*tableBody, error) {
		if err := e.Table.UpdateCell(input.Body.Row, input.Body.Col, input.Body.Value); err != nil {
			return nil, handleError(err)
		}
		return tableView(e), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-cursor",
		Method:      http.MethodPost,
		Path:        "/table/cursor",
		Summary:     "Move or set the focused cell",
	}, func(ctx context.Context, input *struct {
		Body CursorRequest `json:"body"`
	}) (*struct {
		Body decisiontable.Cursor `json:"body"`
	}, error) {
		var c decisiontable.Cursor
		switch {
		case input.Body.Key != "":
			c = e.Table.Navigate(decisiontable.Key(input.Body.Key))
		case input.Body.Row != nil && input.Body.Col != nil:
			c = e.Table.Select(*input.Body.Row, *input.Body.Col)
		default:
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "key or row and col required", nil)
		}
		return &struct {
			Body decisiontable.Cursor `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-test-case",
		Method:      http.MethodPost,
		Path:        "/table/tests",
		Summary:     "Append an empty test case",
	}, func(ctx context.Context, _ *struct{}) (*tableBody, error) {
		e.Table.AddTestCase()
		return tableView(e), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-test-case",
		Method:      http.MethodPatch,
		Path:        "/table/tests/{index}",
		Summary:     "Change a test input or the expected value",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Index int                  `path:"index" minimum:"0"`
		Body  TestCasePatchRequest `json:"body"`
	}) (*tableBody, error) {
		if in := input.Body.Input; in != nil {
			if err := e.Table.UpdateTestInput(input.Index, in.Index, in.Value); err != nil {
				return nil, handleError(err)
			}
		}
		if input.Body.Expected != nil {
			if err := e.Table.UpdateTestExpected(input.Index, *input.Body.Expected); err != nil {
				return nil, handleError(err)
			}
		}
		return tableView(e), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-test-case",
		Method:      http.MethodDelete,
		Path:        "/table/tests/{index}",
		Summary:     "Remove a test case",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *indexPath) (*tableBody, error) {
		if err := e.Table.RemoveTestCase(input.Index); err != nil {
			return nil, handleError(err)
		}
		return tableView(e), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "run-tests",
		Method:      http.MethodPost,
		Path:        "/table/tests/run",
		Summary:     "Run every test case against the rules",
	}, func(ctx context.Context, _ *struct{}) (*tableBody, error) {
		e.Table.RunAll()
		return tableView(e), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "test-summary",
		Method:      http.MethodGet,
		Path:        "/table/tests/summary",
		Summary:     "Count passed and failed test cases from the last run",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body decisiontable.Summary `json:"body"`
	}, error) {
		return &struct {
			Body decisiontable.Summary `json:"body"`
		}{Body: e.Table.Summary()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "save-table",
		Method:      http.MethodPost,
		Path:        "/table/save",
		Summary:     "Save the table snapshot",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.ChangeLogEntry `json:"body"`
	}, error) {
		entry, err := e.SaveTable(ctx, actorID(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ChangeLogEntry `json:"body"`
		}{Body: entry}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "load-table",
		Method:      http.MethodPost,
		Path:        "/table/load",
		Summary:     "Restore the saved snapshot or import one",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body *LoadTableRequest `json:"body"`
	}) (*tableBody, error) {
		var snap []byte
		if input.Body != nil {
			snap = input.Body.Snapshot
		}
		v, err := e.LoadTable(ctx, snap, actorID(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &tableBody{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "evaluate-table",
		Method:      http.MethodPost,
		Path:        "/table/evaluate",
		Summary:     "Evaluate inputs with the column conditions",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body EvaluateRequest `json:"body"`
	}) (*struct {
		Body EvaluateResponse `json:"body"`
	}, error) {
		ev, err := e.Table.Evaluate(input.Body.Inputs)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EvaluateResponse `json:"body"`
		}{Body: EvaluateResponse{Evaluation: ev, OutputColumn: e.Table.View().OutputColumn}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "table-changelog",
		Method:      http.MethodGet,
		Path:        "/table/changelog",
		Summary:     "Saved versions of the table",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.ChangeLogEntry `json:"body"`
	}, error) {
		entries, err := e.ChangeLog(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.ChangeLogEntry `json:"body"`
		}{Body: entries}, nil
	})
}

type graphBody struct {
	Body dmn.View `json:"body"`
}

func registerDMN(api huma.API, e *engine.Engine) {
	type nodePath struct {
		ID string `path:"id"`
	}

	huma.Register(api, huma.Operation{
		OperationID: "get-dmn",
		Method:      http.MethodGet,
		Path:        "/dmn",
		Summary:     "DMN diagram",
	}, func(ctx context.Context, _ *struct{}) (*graphBody, error) {
		return &graphBody{Body: e.Graph.View()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-dmn-node",
		Method:        http.MethodPost,
		Path:          "/dmn/nodes",
		Summary:       "Add a node",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateNodeRequest `json:"body"`
	}) (*struct {
		Body domain.Node `json:"body"`
	}, error) {
		t, err := dmn.ParseNodeType(input.Body.Type)
		if err != nil {
			return nil, handleError(err)
		}
		n, err := e.Graph.AddNode(t, input.Body.Label, input.Body.X, input.Body.Y)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Node `json:"body"`
		}{Body: n}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-dmn-node",
		Method:      http.MethodPatch,
		Path:        "/dmn/nodes/{id}",
		Summary:     "Edit node label or properties",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string            `path:"id"`
		Body UpdateNodeRequest `json:"body"`
	}) (*struct {
		Body domain.Node `json:"body"`
	}, error) {
		n, err := e.Graph.UpdateNode(input.ID, dmn.NodeUpdate{
			Label:       input.Body.Label,
			Name:        input.Body.Name,
			Description: input.Body.Description,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Node `json:"body"`
		}{Body: n}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-dmn-node",
		Method:      http.MethodDelete,
		Path:        "/dmn/nodes/{id}",
		Summary:     "Delete a node and its edges",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *nodePath) (*graphBody, error) {
		if err := e.Graph.DeleteNode(input.ID); err != nil {
			return nil, handleError(err)
		}
		return &graphBody{Body: e.Graph.View()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-dmn-edge",
		Method:      http.MethodDelete,
		Path:        "/dmn/edges",
		Summary:     "Delete the edges between two nodes",
	}, func(ctx context.Context, input *struct {
		From string `query:"from" required:"true"`
		To   string `query:"to" required:"true"`
	}) (*graphBody, error) {
		e.Graph.DeleteEdge(input.From, input.To)
		return &graphBody{Body: e.Graph.View()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "dmn-pointer",
		Method:      http.MethodPost,
		Path:        "/dmn/pointer",
		Summary:     "Drive drag and connect interactions",
		Description: "drag and connect start on a node; move updates the node or the pending line; up ends the gesture and adds an edge when released over another node.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body PointerRequest `json:"body"`
	}) (*graphBody, error) {
		b := input.Body
		var err error
		switch b.Action {
		case "drag":
			err = e.Graph.BeginDrag(b.NodeID, b.X, b.Y)
		case "connect":
			err = e.Graph.BeginConnect(b.NodeID, b.X, b.Y)
		case "move":
			e.Graph.PointerMove(b.X, b.Y)
		case "up":
			e.Graph.PointerUp(b.X, b.Y)
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &graphBody{Body: e.Graph.View()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "export-dmn",
		Method:      http.MethodGet,
		Path:        "/dmn/export",
		Summary:     "DMN 1.3 XML",
	}, func(ctx context.Context, input *struct {
		Name string `query:"name" default:"Infinity Decision Model"`
	}) (*struct {
		ContentType string `header:"Content-Type"`
		Body        []byte
	}, error) {
		data, err := e.Graph.ExportXML(input.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			ContentType string `header:"Content-Type"`
			Body        []byte
		}{ContentType: "application/xml", Body: data}, nil
	})
}
