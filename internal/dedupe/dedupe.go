package dedupe

// Package dedupe provides a shared singleflight group used to deduplicate
// concurrent scene-introduction generation requests. A centralized
// singleflight.Group ensures that only one generation job runs for a given
// scenario key while other callers wait for the result.

import "golang.org/x/sync/singleflight"

// SceneGroup deduplicates opening-scene generation requests keyed by the
// canonical scenario key (see keys.ScenarioKeyFromParts).
var SceneGroup singleflight.Group
