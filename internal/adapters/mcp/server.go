package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

// Server exposes the coverage tools over the Model Context Protocol so agent
// hosts can call them directly. Tool results are the same JSON shapes the
// HTTP adapter returns.
type Server struct {
	mcpServer *server.MCPServer
	coverage  ports.CoverageAnswerer
	billing   ports.BillingLookup
	device    ports.DeviceLookup
	drug      ports.DrugLookup
}

func NewServer(
	version string,
	coverage ports.CoverageAnswerer,
	billing ports.BillingLookup,
	device ports.DeviceLookup,
	drug ports.DrugLookup,
) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer("coverage-assistant", version, server.WithToolCapabilities(false)),
		coverage:  coverage,
		billing:   billing,
		device:    device,
		drug:      drug,
	}
	s.registerTools()
	return s
}

// ServeStdio blocks, speaking MCP over stdin/stdout until the host closes
// the stream.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("coverage.answer",
		mcp.WithDescription("Answer an Ontario coverage question across OHIP billing, ADP devices, and ODB drugs."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The coverage question in plain language.")),
		mcp.WithNumber("annual_income", mcp.Description("Patient annual income in dollars, for CEP checks.")),
		mcp.WithNumber("family_size", mcp.Description("Patient family size, for CEP thresholds.")),
	), s.handleAnswer)

	s.mcpServer.AddTool(mcp.NewTool("schedule.get",
		mcp.WithDescription("Look up OHIP Schedule of Benefits fee codes."),
		mcp.WithString("question", mcp.Required(), mcp.Description("What to look up.")),
		mcp.WithString("code", mcp.Description("Exact fee code, e.g. A005.")),
		mcp.WithString("specialty", mcp.Description("Restrict matches to a specialty.")),
	), s.handleSchedule)

	s.mcpServer.AddTool(mcp.NewTool("adp.get",
		mcp.WithDescription("Look up Assistive Devices Program funding for a device."),
		mcp.WithString("question", mcp.Required(), mcp.Description("What to look up.")),
		mcp.WithString("device_type", mcp.Description("Device type, e.g. power wheelchair.")),
		mcp.WithNumber("annual_income", mcp.Description("Patient annual income in dollars.")),
		mcp.WithNumber("family_size", mcp.Description("Patient family size.")),
	), s.handleDevice)

	s.mcpServer.AddTool(mcp.NewTool("odb.get",
		mcp.WithDescription("Look up Ontario Drug Benefit formulary coverage for a drug."),
		mcp.WithString("question", mcp.Required(), mcp.Description("What to look up.")),
		mcp.WithString("drug_name", mcp.Description("Drug brand or generic name.")),
	), s.handleDrug)
}

func (s *Server) handleAnswer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, errResult := queryFromRequest(req)
	if errResult != nil {
		return errResult, nil
	}
	decision, err := s.coverage.Answer(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(decision)
}

func (s *Server) handleSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, errResult := queryFromRequest(req)
	if errResult != nil {
		return errResult, nil
	}
	query.Hints.BillingCode = req.GetString("code", "")
	query.Hints.Specialty = req.GetString("specialty", "")

	answer, err := s.billing.LookupBilling(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(answer)
}

func (s *Server) handleDevice(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, errResult := queryFromRequest(req)
	if errResult != nil {
		return errResult, nil
	}
	query.Hints.DeviceType = req.GetString("device_type", "")

	answer, err := s.device.LookupDevice(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(answer)
}

func (s *Server) handleDrug(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, errResult := queryFromRequest(req)
	if errResult != nil {
		return errResult, nil
	}
	query.Hints.DrugName = req.GetString("drug_name", "")

	answer, err := s.drug.LookupDrug(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(answer)
}

func queryFromRequest(req mcp.CallToolRequest) (domain.Query, *mcp.CallToolResult) {
	question, err := req.RequireString("question")
	if err != nil {
		return domain.Query{}, mcp.NewToolResultError("question is required")
	}

	query := domain.Query{Question: question}
	income := req.GetFloat("annual_income", 0)
	familySize := req.GetInt("family_size", 0)
	if income > 0 || familySize > 0 {
		query.Patient = &domain.PatientContext{
			AnnualIncome: income,
			FamilySize:   familySize,
		}
	}
	return query, nil
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
