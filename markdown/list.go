package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsawler/markit/engine"
	"github.com/tsawler/markit/model"
)

var checkboxRe = regexp.MustCompile(`^\[([ xX])\] +`)

// deserializeList builds a list from the items of a scanned list. An item
// is loose when it holds a blank line, is followed by one, or follows a
// loose item. Loose items hold paragraphs, tight items plain lines.
func deserializeList(s engine.State, m []string) (engine.State, bool) {
	items := splitItems(m[1], m[2])
	first, _ := nextLine(items[0], 0)
	bullet := bulletRe.FindStringSubmatch(first)
	if bullet == nil {
		return engine.State{}, false
	}

	list := model.NewBlock(model.BlockUnorderedList)
	start := 1
	if strings.HasSuffix(bullet[2], ".") {
		list.Type = model.BlockOrderedList
		start, _ = strconv.Atoi(strings.TrimSuffix(bullet[2], "."))
	}

	nodes := make([]model.Node, 0, len(items))
	next := false
	for i, item := range items {
		line, _ := nextLine(item, 0)
		prefix := bulletRe.FindString(line)
		text := item[len(prefix):]
		space := len(prefix)

		var checked *bool
		if cm := checkboxRe.FindStringSubmatch(text); cm != nil {
			on := cm[1] != " "
			checked = &on
			text = text[len(cm[0]):]
		}
		if strings.Contains(text, "\n ") {
			text = outdent(text, space)
		}

		loose := next || strings.Contains(strings.TrimRight(text, " \n"), "\n\n")
		if i < len(items)-1 {
			next = strings.HasSuffix(text, "\n")
			if !loose {
				loose = next
			}
		}

		inner := s
		if loose {
			inner = s.SetProp(propLooseList, s.Depth())
		}
		children := inner.Deserialize(text)
		if len(children) == 0 {
			children = []model.Node{model.NewBlock(model.BlockUnstyled, model.NewText(""))}
		}
		node := model.NewBlock(model.BlockListItem, children...)
		if checked != nil {
			node = node.Set("checked", *checked)
		}
		nodes = append(nodes, node)
	}

	list = list.WithNodes(nodes...)
	if start != 1 {
		list = list.Set("start", start)
	}
	return s.Push(list), true
}

// outdent removes up to n leading spaces from every line of text
func outdent(text string, n int) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trim := 0
		for trim < n && trim < len(line) && line[trim] == ' ' {
			trim++
		}
		lines[i] = line[trim:]
	}
	return strings.Join(lines, "\n")
}

// serializeList writes one bullet per item, indenting the continuation
// lines under the bullet. Ordered lists count from their start.
func serializeList(s engine.State) (engine.State, bool) {
	list := s.Peek()
	start := 1
	if v, ok := list.Data.Int("start"); ok {
		start = v
	}

	var sb strings.Builder
	for i, item := range list.Nodes {
		bullet := "*"
		if list.Type == model.BlockOrderedList {
			bullet = strconv.Itoa(start+i) + "."
		}
		body := strings.TrimRight(s.Serialize(item.Nodes), "\n") + "\n"
		body = indentLines(body, strings.Repeat(" ", len(bullet)+1))
		if hasParagraph(item) || i == len(list.Nodes)-1 {
			body += "\n"
		}
		if checked, ok := item.Data.Bool("checked"); ok {
			if checked {
				body = "[x] " + body
			} else {
				body = "[ ] " + body
			}
		}
		sb.WriteString(bullet + " " + body)
	}
	return s.Shift().Write(sb.String()), true
}

func hasParagraph(item model.Node) bool {
	for _, child := range item.Nodes {
		if child.Type == model.BlockParagraph {
			return true
		}
	}
	return false
}

// indentLines prefixes every non-empty line but the first with indent
func indentLines(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
