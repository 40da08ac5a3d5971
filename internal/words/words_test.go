package words

import (
	"reflect"
	"testing"
)

func TestFromLabels_Normalization(t *testing.T) {
	labels := []string{"Golden_Retriever", "Dog, Canine", "DOG", "x", ""}
	got := FromLabels(labels, 10)

	// "DOG" collapses into "dog" from the comma-split of the second
	// label; "x" is too short. Generic padding follows the survivors.
	want := []string{"golden retriever", "dog"}
	if !reflect.DeepEqual(got[:2], want) {
		t.Errorf("FromLabels = %#v, want prefix %#v", got, want)
	}
}

func TestFromLabels_PadsWhenSparse(t *testing.T) {
	got := FromLabels([]string{"dog"}, 10)
	if len(got) < 3 {
		t.Errorf("FromLabels = %#v, want generic padding to at least 3", got)
	}
	if got[0] != "dog" {
		t.Errorf("detected label should come first, got %#v", got)
	}
}

func TestFromLabels_Limit(t *testing.T) {
	labels := []string{"aa", "bb", "cc", "dd", "ee", "ff"}
	got := FromLabels(labels, 4)
	if len(got) != 4 {
		t.Errorf("len = %d, want 4", len(got))
	}
}

func TestFresh(t *testing.T) {
	used := map[string]bool{"dog": true}
	got := Fresh([]string{"dog", "cat", "bird"}, used, 10)
	want := []string{"cat", "bird"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Fresh = %#v, want %#v", got, want)
	}
}
