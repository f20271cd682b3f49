package bridge

import (
	"fmt"

	"github.com/loglayer/loglayer/internal/layer"
)

// LayerSpec is the wire shape of one layer in a sync_layers/sync_decorations
// request (spec.md §6): a type id naming a registered Class, an instance
// id, whether it's currently enabled, and its typed configuration values
// keyed by schema field name.
type LayerSpec struct {
	ID      string
	TypeID  string
	Enabled bool
	Config  map[string]any
}

// buildLayers constructs a Layer instance per spec via the registry, then
// partitions the result into its Processing and Rendering halves,
// preserving declaration order within each (spec.md §4.4: "layer
// evaluation order is the order in the session's layer list"). The hidden
// Bookmark layer is never accepted here — §4.7's sync_layers "does not
// clobber" it — so a spec naming type id "bookmark" is rejected.
func buildLayers(registry *layer.Registry, specs []LayerSpec) (processing []layer.ProcessingLayer, rendering []layer.RenderingLayer, err error) {
	for _, spec := range specs {
		if spec.TypeID == "bookmark" {
			return nil, nil, fmt.Errorf("layer %q: type %q is system-managed and cannot be synced directly", spec.ID, spec.TypeID)
		}
		inst, err := registry.CreateInstance(spec.ID, spec.TypeID, spec.Config)
		if err != nil {
			return nil, nil, fmt.Errorf("layer %q: %w", spec.ID, err)
		}
		inst.SetEnabled(spec.Enabled)

		switch l := inst.(type) {
		case layer.ProcessingLayer:
			processing = append(processing, l)
		case layer.RenderingLayer:
			rendering = append(rendering, l)
		default:
			return nil, nil, fmt.Errorf("layer %q: type %q is neither Processing nor Rendering", spec.ID, spec.TypeID)
		}
	}
	return processing, rendering, nil
}

// allLayers flattens processing and rendering into one slice in
// declaration order, for the Stats Worker (spec.md §4.6 counts any
// queryable layer, Processing or Rendering).
func allLayers(processing []layer.ProcessingLayer, rendering []layer.RenderingLayer) []layer.Layer {
	out := make([]layer.Layer, 0, len(processing)+len(rendering))
	for _, l := range processing {
		out = append(out, l)
	}
	for _, l := range rendering {
		out = append(out, l)
	}
	return out
}

// hasQueryableLayer reports whether any enabled layer in all implements
// layer.StatsQueryable — the Stats Worker only runs when at least one does
// (spec.md §4.7: "start new PW (and SW if any layer has a query)").
func hasQueryableLayer(all []layer.Layer) bool {
	for _, l := range all {
		if !l.Enabled() {
			continue
		}
		if _, ok := l.(layer.StatsQueryable); ok {
			return true
		}
	}
	return false
}
