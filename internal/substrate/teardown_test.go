package substrate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyfan1/timegate/internal/substrate"
)

func TestTeardown(t *testing.T) {
	ctx := context.Background()
	e := substrate.NewEmbedded(nil, nil)
	defer e.Close()

	putRuleWithTarget(t, e, "202601010930DDDDDD", "{}")

	require.NoError(t, substrate.Teardown(ctx, e, "202601010930DDDDDD"))

	t.Run("Should remove the rule", func(t *testing.T) {
		_, err := e.ListTargets(ctx, "202601010930DDDDDD")
		assert.ErrorIs(t, err, substrate.ErrRuleNotFound)
	})

	t.Run("Should revoke the invoke permission", func(t *testing.T) {
		err := e.RevokeInvoke(ctx, "target-arn", "202601010930DDDDDD")
		assert.ErrorIs(t, err, substrate.ErrPermissionNotFound)
	})

	t.Run("Should report not-found when repeated", func(t *testing.T) {
		err := substrate.Teardown(ctx, e, "202601010930DDDDDD")
		require.Error(t, err)
		assert.ErrorIs(t, err, substrate.ErrRuleNotFound)
	})
}

func TestTeardownRuleWithoutTargets(t *testing.T) {
	// A rule whose creation sequence died after put_rule has no targets and
	// no grant; teardown must still remove it cleanly.
	ctx := context.Background()
	e := substrate.NewEmbedded(nil, nil)
	defer e.Close()

	_, err := e.PutRule(ctx, "202601010930ORPHAN", futureExpression(t))
	require.NoError(t, err)

	require.NoError(t, substrate.Teardown(ctx, e, "202601010930ORPHAN"))

	_, err = e.ListTargets(ctx, "202601010930ORPHAN")
	assert.ErrorIs(t, err, substrate.ErrRuleNotFound)
}
