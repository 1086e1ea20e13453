package customtag

import (
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/tsawler/markit/model"
)

// Resolver nests the tag nodes of a sibling list. A parser emits every tag,
// closing tags included, as a void block of type x-<name>; Resolve turns the
// spans between a tag and its terminator into children of the tag.
type Resolver struct {
	unending map[string]bool
}

// NewResolver creates a resolver for which the given tags are unending
func NewResolver(unending ...string) *Resolver {
	r := &Resolver{unending: make(map[string]bool, len(unending))}
	for _, name := range unending {
		r.unending[name] = true
	}
	return r
}

// Unending reports whether the tag name has no closing tag
func (r *Resolver) Unending(name string) bool {
	return r != nil && r.unending[name]
}

// frame is an open tag and the siblings collected since it opened. The
// bottom frame has no tag and collects the result.
type frame struct {
	name     string
	node     model.Node
	children []model.Node
}

// Resolve nests tag nodes, working through the siblings with a stack of
// open tags:
//
//   - a closing tag end<name> closes the innermost open tag <name> and is
//     dropped. Open tags above it are closed first.
//   - an unending tag closes the innermost open tag of the same name, if
//     any, then opens a new scope.
//   - any other tag opens a scope.
//
// At the end of the list every open tag is closed. A tag with its closing
// tag is never void, even with an empty body. A tag closed without its
// closing tag keeps its scope only if it is unending: otherwise it stays
// void and the siblings collected in its scope follow it.
func (r *Resolver) Resolve(nodes []model.Node) []model.Node {
	if !hasTags(nodes) {
		return nodes
	}
	stack := arraystack.New()
	stack.Push(&frame{})
	for _, n := range nodes {
		name, ok := tagName(n)
		if !ok {
			top(stack).add(n)
			continue
		}
		if closed, ok := ClosedName(name); ok && isOpen(stack, closed) {
			r.closeThrough(stack, closed, true)
			continue
		}
		if r.Unending(name) && isOpen(stack, name) {
			r.closeThrough(stack, name, false)
		}
		stack.Push(&frame{name: name, node: n})
	}
	for stack.Size() > 1 {
		r.closeTop(stack, false)
	}
	return top(stack).children
}

// closeThrough closes the open tags down to and including the innermost one
// named name
func (r *Resolver) closeThrough(stack *arraystack.Stack, name string, ended bool) {
	for top(stack).name != name {
		r.closeTop(stack, false)
	}
	r.closeTop(stack, ended)
}

func (r *Resolver) closeTop(stack *arraystack.Stack, ended bool) {
	v, _ := stack.Pop()
	f := v.(*frame)
	parent := top(stack)
	if ended {
		n := f.node.WithNodes(f.children...)
		n.Void = false
		parent.add(n)
		return
	}
	if r.Unending(f.name) {
		parent.add(f.node.WithNodes(f.children...))
		return
	}
	tracer().Debugf("tag %q is not closed, keeping it void", f.name)
	parent.add(f.node)
	parent.add(f.children...)
}

func (f *frame) add(nodes ...model.Node) {
	f.children = append(f.children, nodes...)
}

func top(stack *arraystack.Stack) *frame {
	v, _ := stack.Peek()
	return v.(*frame)
}

func isOpen(stack *arraystack.Stack, name string) bool {
	for _, v := range stack.Values() {
		if f := v.(*frame); f.name == name {
			return true
		}
	}
	return false
}

// tagName returns the name of an unresolved tag node
func tagName(n model.Node) (string, bool) {
	if n.Kind != model.KindBlock || !n.Void || !model.IsCustomType(n.Type) {
		return "", false
	}
	return model.CustomTag(n.Type), true
}

func hasTags(nodes []model.Node) bool {
	for _, n := range nodes {
		if _, ok := tagName(n); ok {
			return true
		}
	}
	return false
}
