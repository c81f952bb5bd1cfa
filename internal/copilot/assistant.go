// Package copilot is the canned rule-authoring assistant.
package copilot

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

const (
	Greeting      = "Hello! I'm your Infinity assistant. I can help you write Decision Table rules, create DMN models, and debug your business logic. Try asking me about rule syntax or decision table best practices!"
	ResetGreeting = "Hello! I'm your Drools assistant. How can I help you with your business rules today?"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrEmptyMessage = errors.New("message is empty")

type Message struct {
	Role    string `json:"type"`
	Content string `json:"content"`
	// Applicable is set on answers that carry a rule the editor can take.
	Applicable bool `json:"applicable,omitempty"`
}

type answer struct {
	triggers []string
	text     string
}

var answers = []answer{
	{
		triggers: []string{"age", "validation", "person"},
		text:     "Here's a sample DRL rule for age validation:\n\nrule \"Age Validation\"\nwhen\n $person : Person(age >= 18)\nthen\n $person.setStatus(\"Adult\");\n System.out.println(\"Person is an adult\");\nend",
	},
	{
		triggers: []string{"income", "check", "salary"},
		text:     "For income validation, you can use:\n\nrule \"Income Check\"\nwhen\n $person : Person(income > 50000)\nthen\n $person.setEligible(true);\n System.out.println(\"Person is eligible\");\nend",
	},
	{
		triggers: []string{"dmn", "decision", "table"},
		text:     "For DMN decision tables, consider these best practices:\n1. Use clear, descriptive column headers\n2. Order rules from most specific to least specific\n3. Use UNIQUE hit policy when only one rule should fire\n4. Test all possible input combinations",
	},
	{
		triggers: []string{"feel", "expression"},
		text:     "FEEL expressions in DMN support:\n- Comparison operators: >, <, >=, <=, =, !=\n- Range expressions: [18..65], (0..100)\n- List expressions: \"A\", \"B\", \"C\"\n- Boolean logic: and, or, not",
	},
	{
		triggers: []string{"conflict", "overlap", "error"},
		text:     "Rule conflicts can occur when:\n1. Multiple rules have identical conditions\n2. Rules have overlapping ranges\n3. Rule ordering creates unreachable conditions\n\nUse the conflict detector to identify and resolve these issues.",
	},
	{
		triggers: []string{"salience", "priority"},
		text:     "Salience controls rule execution order:\n\nrule \"High Priority Rule\"\nsalience 100\nwhen\n // conditions\nthen\n // actions\nend\n\nHigher numbers execute first. Default salience is 0.",
	},
}

var Fallbacks = []string{
	"I can help you with DRL rules and DMN decision tables. What specific topic would you like to explore?",
	"Try asking about rule syntax, decision table design, or conflict resolution.",
	"Would you like me to show you an example of a specific rule pattern?",
	"I can explain FEEL expressions, salience, or help debug your rules.",
}

// Picker chooses one of n fallback answers.
type Picker func(n int) int

// Assistant keeps one conversation. It is safe for concurrent use.
type Assistant struct {
	mu       sync.Mutex
	messages []Message
	pick     Picker
}

func New(pick Picker) *Assistant {
	if pick == nil {
		pick = rand.IntN
	}
	return &Assistant{messages: []Message{{Role: RoleAssistant, Content: Greeting}}, pick: pick}
}

// Reply returns the canned answer for text: the first group with a trigger
// contained in the lowercased text wins, otherwise a fallback is picked.
func (a *Assistant) Reply(text string) string {
	lower := strings.ToLower(text)
	for _, ans := range answers {
		for _, t := range ans.triggers {
			if strings.Contains(lower, t) {
				return ans.text
			}
		}
	}
	return Fallbacks[a.pick(len(Fallbacks))]
}

// Send records the user message and the assistant answer and returns the
// answer.
func (a *Assistant) Send(text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}
	reply := a.Reply(text)
	msg := Message{Role: RoleAssistant, Content: reply, Applicable: strings.Contains(reply, "rule ")}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, Message{Role: RoleUser, Content: text}, msg)
	return msg, nil
}

func (a *Assistant) Messages() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Message{}, a.messages...)
}

// Clear resets the conversation to the short greeting.
func (a *Assistant) Clear() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = []Message{{Role: RoleAssistant, Content: ResetGreeting}}
	return append([]Message{}, a.messages...)
}
