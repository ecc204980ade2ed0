// Package intent classifies a user message as smalltalk, an emergency
// category, or unknown, by keyword substring matching.
package intent

import (
	"strings"

	"github.com/mr1hm/cuya-bot/internal/models"
	"github.com/mr1hm/cuya-bot/internal/rules"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindSmalltalk
	KindEmergency
)

func (k Kind) String() string {
	switch k {
	case KindSmalltalk:
		return "smalltalk"
	case KindEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

type Smalltalk int

const (
	SmalltalkNone Smalltalk = iota
	SmalltalkGreeting
	SmalltalkHelp
	SmalltalkIdentity
)

func (s Smalltalk) String() string {
	switch s {
	case SmalltalkGreeting:
		return "greeting"
	case SmalltalkHelp:
		return "help"
	case SmalltalkIdentity:
		return "identity"
	default:
		return "none"
	}
}

type Intent struct {
	Kind      Kind
	Smalltalk Smalltalk
	Category  *models.Category
}

type smalltalkSet struct {
	kind     Smalltalk
	keywords []string
	reply    string
}

type Classifier struct {
	smalltalk  []smalltalkSet
	categories []models.Category
}

// NewClassifier builds a classifier from the rule table. Smalltalk sets are
// checked greeting, help, identity; categories in table order.
func NewClassifier(r *rules.Rules) *Classifier {
	return &Classifier{
		smalltalk: []smalltalkSet{
			{SmalltalkGreeting, r.Smalltalk.Greeting.Keywords, r.Smalltalk.Greeting.Reply},
			{SmalltalkHelp, r.Smalltalk.Help.Keywords, r.Smalltalk.Help.Reply},
			{SmalltalkIdentity, r.Smalltalk.Identity.Keywords, r.Smalltalk.Identity.Reply},
		},
		categories: r.CategoryTable(),
	}
}

// Classify returns the first matching intent. A message matching several
// categories is classified by whichever comes first in the table.
func (c *Classifier) Classify(text string) Intent {
	text = strings.ToLower(text)

	for _, s := range c.smalltalk {
		if containsAny(text, s.keywords) {
			return Intent{Kind: KindSmalltalk, Smalltalk: s.kind}
		}
	}

	for i := range c.categories {
		if containsAny(text, c.categories[i].Keywords) {
			return Intent{Kind: KindEmergency, Category: &c.categories[i]}
		}
	}

	return Intent{Kind: KindUnknown}
}

// SmalltalkReply returns the canned reply for a smalltalk intent.
func (c *Classifier) SmalltalkReply(s Smalltalk) string {
	for _, set := range c.smalltalk {
		if set.kind == s {
			return set.reply
		}
	}
	return ""
}

func (c *Classifier) Categories() []models.Category {
	return c.categories
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}
