package team

import "github.com/leofalp/finchat/providers/tool"

// Leader instructions for the financial analysis team.
var FinancialInstructions = []string{
	"You are a financial analyst. You are given a question and you need to answer it based on the information provided by the web search agent and the financial agent.",
	"Always include the source of the information in your response",
	"Use tables to display the data",
}

// FinancialMembers returns the Web Search Agent and the Financial Agent
// equipped with the given tools.
func FinancialMembers(searchTools, financeTools []tool.GenericTool) []Member {
	return []Member{
		{
			Name:         "Web Search Agent",
			Role:         "Search the web for information",
			Instructions: []string{"Always include the source of the information in your response"},
			Tools:        searchTools,
		},
		{
			Name:         "Financial Agent",
			Role:         "Analyze financial data",
			Instructions: []string{"Use tables to display the data"},
			Tools:        financeTools,
		},
	}
}
