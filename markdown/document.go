package markdown

import (
	"strings"

	"github.com/tsawler/markit/engine"
	"github.com/tsawler/markit/frontmatter"
	"github.com/tsawler/markit/model"
)

// documentEntry splits the metadata header from the body. A header that
// does not parse is left in the body.
func documentEntry() engine.Entry {
	return engine.Entry{
		Name: "document",
		Serialize: engine.Serializer().
			MatchObject(model.KindDocument).
			Then(serializeDocument),
		Deserialize: engine.Deserializer().
			Then(func(s engine.State) (engine.State, bool) {
				data, body := frontmatter.Split(s.Text())
				nodes := s.Use(engine.ModeBlock).Deserialize(body)
				return s.Skip(len(s.Text())).Push(model.NewDocument(data, nodes...)), true
			}),
	}
}

func serializeDocument(s engine.State) (engine.State, bool) {
	doc := s.Peek()
	header, err := frontmatter.Render(doc.Data)
	if err != nil {
		engine.Raise(err)
	}
	body := strings.TrimRight(s.Use(engine.ModeBlock).Serialize(doc.Nodes), "\n")
	return s.Shift().Write(header + body + "\n"), true
}
