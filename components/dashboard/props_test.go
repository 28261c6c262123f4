package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropsFromAndDecode(t *testing.T) {
	props, err := PropsFrom(QuickActionsProps{
		Title:   "Shortcuts",
		Actions: []QuickAction{{Label: "Approve leave", Route: "/leave/approvals", Icon: "check"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Shortcuts", props["title"])

	decoded, err := DecodeProps[QuickActionsProps](WidgetInstance{ID: "qa", Props: props})
	require.NoError(t, err)
	require.Len(t, decoded.Actions, 1)
	assert.Equal(t, "/leave/approvals", decoded.Actions[0].Route)
}

func TestDecodePropsTypeMismatch(t *testing.T) {
	_, err := DecodeProps[ListProps](WidgetInstance{ID: "x", Props: Props{"limit": "many"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x")
}

func TestPropsCloneIsDeep(t *testing.T) {
	original := Props{
		"nested": map[string]any{"a": []any{"x"}},
		"tags":   []string{"hr"},
	}
	clone := original.Clone()
	clone["nested"].(map[string]any)["a"].([]any)[0] = "y"
	clone["tags"].([]string)[0] = "ats"

	assert.Equal(t, "x", original["nested"].(map[string]any)["a"].([]any)[0])
	assert.Equal(t, "hr", original["tags"].([]string)[0])
	assert.Nil(t, Props(nil).Clone())
}
