package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/ports"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/session"
)

func TestAdvisories_ZeroHandlesAreNeverTracked(t *testing.T) {
	var adv session.Advisories

	adv.TrackPrepare(ports.MessageHandle{})
	adv.TrackStage(ports.MessageHandle{})

	assert.False(t, adv.PendingPrepare())
	assert.Equal(t, 0, adv.StageCount())
}

func TestAdvisories_RetractPrepareForgetsHandle(t *testing.T) {
	notifier := &mockNotifier{}
	var adv session.Advisories

	adv.TrackPrepare(ports.MessageHandle{ID: 7})
	assert.True(t, adv.PendingPrepare())

	adv.RetractPrepare(context.Background(), notifier)
	assert.False(t, adv.PendingPrepare())
	assert.Equal(t, []int64{7}, notifier.deleted)

	// Un segundo retract no vuelve a borrar: el handle ya se descartó.
	adv.RetractPrepare(context.Background(), notifier)
	assert.Equal(t, []int64{7}, notifier.deleted)
}

func TestAdvisories_ClearRetractsEverythingInOrder(t *testing.T) {
	notifier := &mockNotifier{}
	var adv session.Advisories

	adv.TrackPrepare(ports.MessageHandle{ID: 1})
	adv.TrackStage(ports.MessageHandle{ID: 2})
	adv.TrackStage(ports.MessageHandle{ID: 3})

	adv.Clear(context.Background(), notifier)

	assert.Equal(t, []int64{1, 2, 3}, notifier.deleted)
	assert.False(t, adv.PendingPrepare())
	assert.Equal(t, 0, adv.StageCount())
}
