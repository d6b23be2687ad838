// Package router classifies console input into exit, small talk, tool and
// chat commands.
package router

import (
	"fmt"
	"regexp"
	"strings"
)

type Kind int

const (
	KindEmpty Kind = iota
	KindExit
	KindSmallTalk
	KindTool
	KindChat
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindExit:
		return "exit"
	case KindSmallTalk:
		return "small_talk"
	case KindTool:
		return "tool"
	case KindChat:
		return "chat"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Command is the classification of one input line.
type Command struct {
	Kind  Kind
	Text  string // raw input
	Name  string // tool name, KindTool only
	Args  string // tool arguments, KindTool only
	Reply string // canned reply, KindSmallTalk only
}

type keywordRule struct {
	tool string
	re   *regexp.Regexp
}

type prefixRule struct {
	prefix string
	tool   string
}

type smallTalkRule struct {
	phrase string
	reply  string
}

type Router struct {
	exitWords map[string]struct{}
	smallTalk []smallTalkRule
	prefixes  []prefixRule
	keywords  []keywordRule
}

func New(cfg Config) (*Router, error) {
	r := &Router{exitWords: make(map[string]struct{}, len(cfg.ExitWords))}
	for _, w := range cfg.ExitWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			r.exitWords[w] = struct{}{}
		}
	}
	for _, st := range cfg.SmallTalk {
		phrase := strings.ToLower(strings.TrimSpace(st.Phrase))
		if phrase == "" {
			return nil, fmt.Errorf("small talk entry with empty phrase")
		}
		r.smallTalk = append(r.smallTalk, smallTalkRule{phrase: phrase, reply: st.Reply})
	}
	for _, p := range cfg.PrefixTools {
		prefix := strings.ToLower(strings.TrimSpace(p.Prefix))
		tool := strings.ToLower(strings.TrimSpace(p.Tool))
		if prefix == "" || tool == "" {
			return nil, fmt.Errorf("prefix tool entry needs prefix and tool: %+v", p)
		}
		r.prefixes = append(r.prefixes, prefixRule{prefix: prefix, tool: tool})
	}
	for _, kw := range cfg.KeywordTools {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("keyword %q: %w", kw, err)
		}
		r.keywords = append(r.keywords, keywordRule{tool: kw, re: re})
	}
	return r, nil
}

// Classify applies, in order: exit words, small talk, prefix tools, keyword
// tools. Anything else is chat.
func (r *Router) Classify(raw string) Command {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Command{Kind: KindEmpty, Text: raw}
	}
	lower := strings.ToLower(trimmed)

	if _, ok := r.exitWords[lower]; ok {
		return Command{Kind: KindExit, Text: raw}
	}

	for _, st := range r.smallTalk {
		if strings.Contains(lower, st.phrase) {
			return Command{Kind: KindSmallTalk, Text: raw, Reply: st.reply}
		}
	}

	for _, p := range r.prefixes {
		n := len(p.prefix)
		if len(trimmed) < n || !strings.EqualFold(trimmed[:n], p.prefix) {
			continue
		}
		if len(trimmed) == n {
			return Command{Kind: KindTool, Text: raw, Name: p.tool}
		}
		if isSpace(trimmed[n]) {
			return Command{Kind: KindTool, Text: raw, Name: p.tool, Args: strings.TrimSpace(trimmed[n:])}
		}
	}

	for _, kw := range r.keywords {
		if !kw.re.MatchString(trimmed) {
			continue
		}
		// The keyword stays in Args: it may be part of the image filename.
		return Command{Kind: KindTool, Text: raw, Name: kw.tool, Args: strings.Join(strings.Fields(trimmed), " ")}
	}

	return Command{Kind: KindChat, Text: raw}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
