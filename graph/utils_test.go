package graph

import (
	"testing"

	"github.com/256dpi/fire/coal"

	"github.com/256dpi/ember/models"
)

var lungoStore = coal.MustOpen(nil, "test-ember-graph", nil)

func withTester(t *testing.T, fn func(*testing.T, *coal.Tester)) {
	t.Run("Lungo", func(t *testing.T) {
		tester := coal.NewTester(lungoStore, models.All()...)
		tester.Clean()
		fn(t, tester)
	})
}
