package missions

import (
	"reflect"
	"testing"
)

func TestNext_FromPool(t *testing.T) {
	valid := map[string]bool{}
	for _, w := range pool {
		valid[w] = true
	}
	for range 20 {
		if w := Next(); !valid[w] {
			t.Fatalf("Next() = %q, not in pool", w)
		}
	}
}

func TestFromStory(t *testing.T) {
	story := "The <dog> runs to the <tree>. The <dog> is happy."
	got := FromStory(story)
	want := []string{"dog", "tree"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FromStory = %#v, want %#v", got, want)
	}

	if got := FromStory("no marked words here"); got != nil {
		t.Errorf("FromStory = %#v, want nil", got)
	}
}

func TestWithReturnHome(t *testing.T) {
	got := WithReturnHome([]string{"dog", "cat", "dog"})
	want := []string{"dog", "cat", ReturnHome}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WithReturnHome = %#v, want %#v", got, want)
	}

	// Already present: not duplicated.
	got = WithReturnHome([]string{"dog", ReturnHome})
	want = []string{"dog", ReturnHome}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WithReturnHome = %#v, want %#v", got, want)
	}
}
