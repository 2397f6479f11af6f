package freeze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
	"git.home.luguber.info/inful/partsd/internal/host/hosttest"
)

const gms = "com.google.android.gms/com.google.android.gms.chimera.GmsIntentOperationService"

func TestFreezeRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := hosttest.NewFake()
	svc := NewService(fake, []string{gms})

	assert.Equal(t, []Component{{Name: gms}}, svc.List(ctx))

	require.NoError(t, svc.SetFrozen(ctx, gms, true))
	assert.Equal(t, []Component{{Name: gms, Frozen: true}}, svc.List(ctx))

	require.NoError(t, svc.SetFrozen(ctx, gms, false))
	assert.False(t, svc.List(ctx)[0].Frozen)
}

func TestFreezeUnknownComponent(t *testing.T) {
	svc := NewService(hosttest.NewFake(), []string{gms})
	err := svc.SetFrozen(context.Background(), "com.other/.X", true)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestFreezeListReportsErrors(t *testing.T) {
	fake := hosttest.NewFake()
	fake.Errs["ComponentEnabled"] = errors.HostError("dumpsys failed").Build()
	list := NewService(fake, []string{gms}).List(context.Background())
	require.Len(t, list, 1)
	assert.False(t, list[0].Frozen)
	assert.NotEmpty(t, list[0].Error)
}
