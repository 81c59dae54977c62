package parser

import (
	"github.com/dgallion1/papergest/internal/blocks"
	pdflib "github.com/ledongthuc/pdf"
)

// Outline trees are untrusted input and may contain cycles.
const (
	maxOutlineItems = 10000
	maxOutlineDepth = 32
)

// outlineReader walks /Outlines and resolves destinations to page numbers.
type outlineReader struct {
	root      pdflib.Value
	pageIndex map[string]int // page dictionary text -> 1-based page number
	seen      int
	out       []blocks.Bookmark
}

func readBookmarks(r *pdflib.Reader) []blocks.Bookmark {
	root := r.Trailer().Key("Root")
	outlines := root.Key("Outlines")
	if outlines.Kind() != pdflib.Dict {
		return nil
	}

	or := &outlineReader{root: root, pageIndex: make(map[string]int)}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		key := p.V.String()
		if _, dup := or.pageIndex[key]; !dup {
			or.pageIndex[key] = i
		}
	}
	or.walk(outlines.Key("First"), 1)
	return or.out
}

func (o *outlineReader) walk(item pdflib.Value, level int) {
	if level > maxOutlineDepth {
		return
	}
	for ; item.Kind() == pdflib.Dict; item = item.Key("Next") {
		o.seen++
		if o.seen > maxOutlineItems {
			return
		}
		page, named := o.resolve(item)
		o.out = append(o.out, blocks.Bookmark{
			Level:     level,
			Title:     item.Key("Title").Text(),
			Page:      page,
			NamedDest: named,
		})
		o.walk(item.Key("First"), level+1)
	}
}

// resolve returns the 1-based target page of an outline item, 0 when it
// cannot be resolved, and the destination name if it used one.
func (o *outlineReader) resolve(item pdflib.Value) (int, string) {
	dest := item.Key("Dest")
	if dest.IsNull() {
		action := item.Key("A")
		if action.Key("S").Name() != "GoTo" {
			return 0, ""
		}
		dest = action.Key("D")
	}

	var named string
	switch dest.Kind() {
	case pdflib.Name:
		named = dest.Name()
		dest = o.lookupNamed(named)
	case pdflib.String:
		named = dest.RawString()
		dest = o.lookupNamed(named)
	}
	if dest.Kind() == pdflib.Dict {
		dest = dest.Key("D")
	}
	if dest.Kind() != pdflib.Array || dest.Len() == 0 {
		return 0, named
	}

	target := dest.Index(0)
	switch target.Kind() {
	case pdflib.Dict:
		return o.pageIndex[target.String()], named
	case pdflib.Integer:
		// Remote-style destinations carry a 0-based page number.
		return int(target.Int64()) + 1, named
	}
	return 0, named
}

// lookupNamed finds a named destination in /Dests or the /Names /Dests tree.
func (o *outlineReader) lookupNamed(name string) pdflib.Value {
	if v := o.root.Key("Dests").Key(name); !v.IsNull() {
		return v
	}
	return searchNameTree(o.root.Key("Names").Key("Dests"), name, 0)
}

func searchNameTree(node pdflib.Value, name string, depth int) pdflib.Value {
	if node.Kind() != pdflib.Dict || depth > maxOutlineDepth {
		return pdflib.Value{}
	}
	if names := node.Key("Names"); names.Kind() == pdflib.Array {
		for i := 0; i+1 < names.Len(); i += 2 {
			if names.Index(i).RawString() == name {
				return names.Index(i + 1)
			}
		}
	}
	kids := node.Key("Kids")
	for i := 0; i < kids.Len(); i++ {
		kid := kids.Index(i)
		if limits := kid.Key("Limits"); limits.Len() == 2 {
			lo, hi := limits.Index(0).RawString(), limits.Index(1).RawString()
			if name < lo || name > hi {
				continue
			}
		}
		if v := searchNameTree(kid, name, depth+1); !v.IsNull() {
			return v
		}
	}
	return pdflib.Value{}
}
