package scenedesc

import (
	"context"
	"errors"

	"github.com/vohyz/cocFightAgent/internal/dedupe"
	"github.com/vohyz/cocFightAgent/internal/game"
	"github.com/vohyz/cocFightAgent/internal/keys"
	"github.com/vohyz/cocFightAgent/internal/logging"
	"github.com/vohyz/cocFightAgent/internal/narrative"
)

// Store is the subset of the repository the scene cache needs.
type Store interface {
	GetSceneIntroByKey(key string) (*game.SceneIntro, error)
	SaveSceneIntro(key, description string) error
}

// GetOrCreate returns the opening-scene description for a scenario,
// generating it at most once per scenario. Lookups go DB first, then a
// singleflight group collapses concurrent generations for the same key,
// and the winner writes the result back to the cache.
func GetOrCreate(ctx context.Context, store Store, describer narrative.SceneDescriber, scenarioName string, m game.Map) (string, error) {
	zoneIDs := make([]string, 0, len(m.Zones))
	for id := range m.Zones {
		zoneIDs = append(zoneIDs, id)
	}
	key := keys.ScenarioKeyFromParts(append([]string{scenarioName}, zoneIDs...))

	if cached, err := store.GetSceneIntroByKey(key); err == nil && cached.Description != "" {
		return cached.Description, nil
	}

	v, err, _ := dedupe.SceneGroup.Do(key, func() (interface{}, error) {
		// Re-check under the flight: a concurrent winner may have
		// populated the cache while this caller waited.
		if cached, err := store.GetSceneIntroByKey(key); err == nil && cached.Description != "" {
			return cached.Description, nil
		}
		desc, err := describer.DescribeScene(ctx, scenarioName, m)
		if err != nil {
			return "", err
		}
		if err := store.SaveSceneIntro(key, desc); err != nil {
			logging.Error("failed to cache scene description", err, logging.Fields{"scenario_key": key})
		}
		return desc, nil
	})
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.New("unexpected scene description type")
	}
	return s, nil
}
