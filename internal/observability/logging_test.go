package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/litbuilder/internal/logfields"
)

func TestWithRunID_AccumulatesIntoLogContext(t *testing.T) {
	ctx := context.Background()
	ctx = WithRunID(ctx, "run-1")
	ctx = WithDocument(ctx, "docs/variance.md")
	ctx = WithStage(ctx, "compile")

	lc := GetContext(ctx)
	require.Equal(t, "run-1", lc.RunID)
	require.Equal(t, "docs/variance.md", lc.Document)
	require.Equal(t, "compile", lc.Stage)
}

func TestWithStage_OverwritesPreviousStage(t *testing.T) {
	ctx := WithStage(context.Background(), "resolve")
	ctx = WithStage(ctx, "place")

	require.Equal(t, "place", GetContext(ctx).Stage)
}

func TestGetContext_EmptyWithoutValues(t *testing.T) {
	lc := GetContext(context.Background())
	require.Empty(t, lc.RunID)
	require.Empty(t, lc.Document)
	require.Empty(t, lc.Stage)
}

func TestGetLogAttrs_OnlySetFieldsEmitted(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-2")
	attrs := getLogAttrs(ctx)
	require.Len(t, attrs, 1)
	require.Equal(t, logfields.KeyRunID, attrs[0].Key)
}
