package tree

import "testing"

func heading(level int, id, text string) *Node {
	return &Node{Kind: KindHeading, Level: level, ID: id, Text: text, Role: RoleUser}
}

func content(level int, text string) *Node {
	return &Node{Kind: KindContent, Level: level, Text: text, Role: RoleUser}
}

func TestInsertAppendReplace(t *testing.T) {
	tr := FromNodes([]*Node{
		heading(1, "a", "# A"),
		content(2, "body"),
		heading(1, "b", "# B"),
	})
	if err := tr.CheckInvariants(); err != nil {
		t.Fatal(err)
	}

	a := tr.FindByIDOrKey("a")
	if a == nil {
		t.Fatal("expected to find heading a")
	}
	kids := ChildrenUnder(a)
	if len(kids) != 1 || kids[0].Text != "body" {
		t.Fatalf("unexpected children: %+v", kids)
	}

	// append after a's region
	frag := []*Node{content(2, "more")}
	if _, err := tr.Insert(a, frag, ModeAppend); err != nil {
		t.Fatal(err)
	}
	if err := tr.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
	iter := tr.Iter()
	if len(iter) != 4 || iter[2].Text != "more" {
		t.Fatalf("unexpected order: %+v", texts(iter))
	}

	// replace a's whole region (heading + descendants)
	replacement := []*Node{heading(1, "x", "# X"), content(2, "DATA")}
	if _, err := tr.Insert(a, replacement, ModeReplace); err != nil {
		t.Fatal(err)
	}
	if err := tr.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
	iter = tr.Iter()
	if iter[0].ID != "x" || iter[1].Text != "DATA" {
		t.Fatalf("replace failed: %+v", texts(iter))
	}
	for _, n := range iter {
		if n.ID == "a" {
			t.Fatalf("old node 'a' should be gone: %+v", texts(iter))
		}
	}
}

func TestInsertPrepend(t *testing.T) {
	tr := FromNodes([]*Node{heading(1, "loop", "# loop")})
	loop := tr.FindByIDOrKey("loop")
	if _, err := tr.Insert(loop, []*Node{content(2, "before")}, ModePrepend); err != nil {
		t.Fatal(err)
	}
	iter := tr.Iter()
	if iter[0].Text != "before" {
		t.Fatalf("prepend put node in wrong place: %+v", texts(iter))
	}
}

func texts(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Text
	}
	return out
}
