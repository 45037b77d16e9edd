package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddChild_Idempotent(t *testing.T) {
	parent := &WorkItem{ID: 1, Type: "Epic"}
	child := &WorkItem{ID: 2, Type: "Bug"}

	parent.AddChild(child)
	parent.AddChild(child)
	parent.AddChild(&WorkItem{ID: 2, Type: "Bug"})

	require.Len(t, parent.Children, 1)
	require.True(t, parent.HasChild(2))
	require.False(t, parent.HasChild(3))
}

func TestNewOtherParent(t *testing.T) {
	other := NewOtherParent("icon.png")
	require.Equal(t, OtherID, other.ID)
	require.Equal(t, OtherType, other.Type)
	require.True(t, other.Root)
	require.False(t, other.Orphan)
	require.Equal(t, 0, other.ParentID)
	require.Equal(t, "icon.png", other.Icon)
}

func TestDetailText(t *testing.T) {
	item := &WorkItem{
		ID:                 7,
		Type:               "Bug",
		Title:              "Crash on startup",
		Description:        "The app crashes",
		ReproSteps:         "Open the app",
		AcceptanceCriteria: "No crash",
		Comments:           []string{"01-02-2026 10:00 | Jo | fixed in abc"},
	}
	text := item.DetailText()
	for _, want := range []string{
		"Type: Bug", "Title: Crash on startup", "Description: The app crashes",
		"Repro Steps: Open the app", "Acceptance Criteria: No crash", "Comment: ",
	} {
		require.True(t, strings.Contains(text, want), "missing %q in %q", want, text)
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		item    WorkItem
		wantErr bool
	}{
		{name: "valid item", item: WorkItem{ID: 1, Type: "Bug"}, wantErr: false},
		{name: "missing type", item: WorkItem{ID: 1}, wantErr: true},
		{name: "negative id", item: WorkItem{ID: -1, Type: "Bug"}, wantErr: true},
		{name: "negative parent id", item: WorkItem{ID: 1, Type: "Bug", ParentID: -2}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.item)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
