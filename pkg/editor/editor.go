// Package editor assembles one pipeline-editor instance: a graph store, an
// interaction controller, a node-type registry, and an optional layout
// engine, behind a single facade. Hosts that embed more than one canvas keep
// their editors in a [Registry] and address them by ID.
package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/flowcanvas/flowcanvas/pkg/cache"
	"github.com/flowcanvas/flowcanvas/pkg/config"
	"github.com/flowcanvas/flowcanvas/pkg/geometry"
	"github.com/flowcanvas/flowcanvas/pkg/graph"
	"github.com/flowcanvas/flowcanvas/pkg/interaction"
	"github.com/flowcanvas/flowcanvas/pkg/layout"
	"github.com/flowcanvas/flowcanvas/pkg/observability"
	"github.com/flowcanvas/flowcanvas/pkg/scene"
	"github.com/flowcanvas/flowcanvas/pkg/transform"
)

// Options configures a new editor. The zero value is usable: defaults come
// from [config.Default], the node-type registry starts empty, and no layout
// engine is attached.
type Options struct {
	// Config supplies metrics, zoom limits, and canvas size. Zero means
	// config.Default().
	Config config.Config
	// NodeTypes seeds the node-type registry.
	NodeTypes scene.Registry
	// Engine runs AutoLayout. Nil makes AutoLayout a logged no-op.
	Engine layout.Engine
	// Cache stores layout results keyed by graph topology. Nil disables
	// caching via cache.NullCache.
	Cache cache.Cache
	// Logger defaults to log.Default().
	Logger *log.Logger
	// Callbacks are the host hooks shared with the interaction controller.
	Callbacks interaction.Callbacks
	// EdgeVeto, when set, can reject edges before they are stored.
	EdgeVeto func(graph.Edge) bool
}

func (o *Options) validateAndSetDefaults() error {
	if (o.Config == config.Config{}) {
		o.Config = config.Default()
	} else if err := o.Config.Validate(); err != nil {
		return err
	}
	if o.NodeTypes == nil {
		o.NodeTypes = scene.Registry{}
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return nil
}

// Editor is one canvas instance. Its methods are the programmatic
// counterpart of the pointer gestures handled by the controller; both paths
// mutate the same store.
//
// An Editor is not safe for concurrent use. Hosts that serve one over HTTP
// serialize access per instance.
type Editor struct {
	id      string
	cfg     config.Config
	store   *graph.Store
	ctrl    *interaction.Controller
	types   scene.Registry
	metrics geometry.Metrics
	engine  layout.Engine
	cache   cache.Cache
	logger  *log.Logger
	cb      interaction.Callbacks
}

// New builds an editor from opts.
func New(opts Options) (*Editor, error) {
	if err := opts.validateAndSetDefaults(); err != nil {
		return nil, err
	}

	var storeOpts []graph.Option
	if opts.EdgeVeto != nil {
		storeOpts = append(storeOpts, graph.WithEdgeVeto(opts.EdgeVeto))
	}
	store := graph.NewStore(storeOpts...)

	types := scene.Registry{}
	for name, t := range opts.NodeTypes {
		types[name] = t
	}

	metrics := opts.Config.Metrics()
	e := &Editor{
		id:      uuid.NewString(),
		cfg:     opts.Config,
		store:   store,
		types:   types,
		metrics: metrics,
		engine:  opts.Engine,
		cache:   opts.Cache,
		logger:  opts.Logger,
		cb:      opts.Callbacks,
	}
	e.ctrl = interaction.NewController(store, types, metrics, opts.Config.ZoomLimits(), opts.Callbacks)
	return e, nil
}

// ID is the instance identifier used by registries and transports.
func (e *Editor) ID() string { return e.id }

// Reconfigure merges opts into a live editor: node types merge over the
// current registry, non-nil engine/cache/logger and callback fields replace
// the current ones, and everything else - the store in particular - is
// preserved.
func (e *Editor) Reconfigure(opts Options) {
	for name, t := range opts.NodeTypes {
		e.types[name] = t
	}
	if opts.Engine != nil {
		e.engine = opts.Engine
	}
	if opts.Cache != nil {
		e.cache = opts.Cache
	}
	if opts.Logger != nil {
		e.logger = opts.Logger
	}
	if opts.Callbacks.OnNodeClick != nil {
		e.cb.OnNodeClick = opts.Callbacks.OnNodeClick
	}
	if opts.Callbacks.OnNodeDoubleClick != nil {
		e.cb.OnNodeDoubleClick = opts.Callbacks.OnNodeDoubleClick
	}
	if opts.Callbacks.OnNodeDelete != nil {
		e.cb.OnNodeDelete = opts.Callbacks.OnNodeDelete
	}
	if opts.Callbacks.OnChange != nil {
		e.cb.OnChange = opts.Callbacks.OnChange
	}
	e.ctrl.SetCallbacks(e.cb)
	e.ctrl.Invalidate()
}

// Store exposes the underlying graph store.
func (e *Editor) Store() *graph.Store { return e.store }

// Controller exposes the pointer-event state machine.
func (e *Editor) Controller() *interaction.Controller { return e.ctrl }

// Metrics returns the drawing metrics in effect.
func (e *Editor) Metrics() geometry.Metrics { return e.metrics }

// Scene builds a fresh drawable scene from the current graph.
func (e *Editor) Scene() scene.Scene {
	return scene.Build(e.store, e.types, e.metrics)
}

// =============================================================================
// Node Types
// =============================================================================

// RegisterNodeType adds or updates a node type. Re-registering merges over
// the existing entry; nodes of that type already in the store keep their
// data and pick up the new appearance on the next rebuild.
func (e *Editor) RegisterNodeType(name string, t scene.NodeType) {
	e.types[name] = t
	e.ctrl.Invalidate()
}

// NodeTypes returns the registry. Shared with the controller; callers treat
// it as read-only and register through RegisterNodeType.
func (e *Editor) NodeTypes() scene.Registry { return e.types }

// =============================================================================
// Graph Operations
// =============================================================================

// AddNode inserts a node and returns the stored copy.
func (e *Editor) AddNode(spec graph.NodeSpec) graph.Node {
	n := e.store.AddNode(spec)
	e.ctrl.Invalidate()
	e.notifyChange("add_node")
	return n
}

// RemoveNode deletes a node and its incident edges. Unknown IDs are no-ops
// and fire no notification.
func (e *Editor) RemoveNode(id string) {
	if _, ok := e.store.Node(id); !ok {
		return
	}
	e.store.RemoveNode(id)
	e.ctrl.Invalidate()
	e.notifyChange("remove_node")
}

// AddEdge connects two nodes. Empty port names fall back to the nodes'
// first declared ports.
func (e *Editor) AddEdge(source, target, sourcePort, targetPort, label string) (*graph.Edge, error) {
	edge, err := e.store.AddEdge(source, target, sourcePort, targetPort, label)
	if err != nil {
		return nil, err
	}
	e.ctrl.Invalidate()
	e.notifyChange("add_edge")
	return edge, nil
}

// RemoveEdge deletes an edge. Unknown IDs are no-ops.
func (e *Editor) RemoveEdge(id string) {
	if _, ok := e.store.Edge(id); !ok {
		return
	}
	e.store.RemoveEdge(id)
	e.ctrl.Invalidate()
	e.notifyChange("remove_edge")
}

// MoveNode repositions a node without a change notification; position is
// cosmetic until a gesture or save settles it.
func (e *Editor) MoveNode(id string, x, y float64) {
	e.store.MoveNode(id, x, y)
	e.ctrl.Invalidate()
}

// Nodes returns the stored nodes in insertion order.
func (e *Editor) Nodes() []*graph.Node { return e.store.Nodes() }

// Edges returns the stored edges in insertion order.
func (e *Editor) Edges() []graph.Edge { return e.store.Edges() }

// GetState snapshots the full editor state.
func (e *Editor) GetState() graph.State { return e.store.GetState() }

// SetState replaces the full editor state.
func (e *Editor) SetState(st graph.State) {
	e.store.SetState(st)
	e.ctrl.Invalidate()
	e.notifyChange("set_state")
}

// Clear removes all nodes and edges, keeping the viewport.
func (e *Editor) Clear() {
	e.store.Clear()
	e.ctrl.Invalidate()
	e.notifyChange("clear")
}

// =============================================================================
// Layout and Viewport
// =============================================================================

// layoutCacheTTL bounds how long a layout result stays reusable.
const layoutCacheTTL = time.Hour

// AutoLayout recomputes node positions with the configured engine and fits
// the viewport to the result. Without an engine it logs a warning and leaves
// the graph untouched. Results are cached by graph topology, so repeated
// layouts of an unchanged graph skip the engine.
func (e *Editor) AutoLayout(ctx context.Context) error {
	if e.engine == nil {
		e.logger.Warn("auto layout requested but no engine is configured")
		return nil
	}

	key := e.layoutCacheKey()
	pos, cached := e.cachedLayout(ctx, key)
	if !cached {
		observability.Editor().OnLayoutStart(ctx, e.cfg.Layout.Engine, e.store.NodeCount())
		start := time.Now()
		var err error
		pos, err = e.engine.Layout(ctx, e.store.Nodes(), e.store.Edges(), e.cfg.LayoutOptions())
		observability.Editor().OnLayoutComplete(ctx, e.cfg.Layout.Engine, time.Since(start), err)
		if err != nil {
			return fmt.Errorf("auto layout: %w", err)
		}
		e.storeLayout(ctx, key, pos)
	}

	for id, p := range pos {
		e.store.MoveNode(id, p.X, p.Y)
	}
	e.FitView()
	e.ctrl.Invalidate()
	e.notifyChange("auto_layout")
	e.logger.Debug("auto layout applied", "nodes", len(pos), "cached", cached)
	return nil
}

// layoutCacheKey derives a key from everything the engine reads: node IDs,
// edge endpoints, and the layout options. Positions are engine output, so
// they stay out of the key.
func (e *Editor) layoutCacheKey() string {
	nodes := e.store.Nodes()
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	edges := e.store.Edges()
	links := make([][2]string, 0, len(edges))
	for _, ed := range edges {
		links = append(links, [2]string{ed.Source, ed.Target})
	}
	return cache.LayoutKey(ids, links, e.cfg.LayoutOptions())
}

func (e *Editor) cachedLayout(ctx context.Context, key string) (map[string]geometry.Point, bool) {
	data, hit, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("layout cache read failed", "err", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}
	var pos map[string]geometry.Point
	if err := json.Unmarshal(data, &pos); err != nil {
		return nil, false
	}
	return pos, true
}

func (e *Editor) storeLayout(ctx context.Context, key string, pos map[string]geometry.Point) {
	data, err := json.Marshal(pos)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, data, layoutCacheTTL); err != nil {
		e.logger.Warn("layout cache write failed", "err", err)
	}
}

// FitView pans and zooms the viewport so every node is visible, capped at
// the configured maximum zoom. An empty graph is a no-op.
func (e *Editor) FitView() {
	bounds, ok := geometry.BoundsOf(e.store.Nodes(), e.metrics)
	if !ok {
		return
	}
	v := geometry.FitViewport(bounds, e.cfg.Canvas.Width, e.cfg.Canvas.Height, e.cfg.Zoom.Max)
	e.store.SetViewport(v)
	e.ctrl.Invalidate()
}

// =============================================================================
// Pipeline Conversion
// =============================================================================

// Transforms converts the drawn graph back to an ordered transform chain.
func (e *Editor) Transforms() ([]transform.Transform, error) {
	return transform.FromState(e.store.GetState())
}

// LoadTransforms replaces the editor content with a generated graph for the
// given source name and transform chain, then fits the view to it.
func (e *Editor) LoadTransforms(source string, ts []transform.Transform) {
	st := transform.ToGraph(source, ts)
	st.Viewport = e.store.Viewport()
	e.store.SetState(st)
	e.FitView()
	e.notifyChange("load_transforms")
}

func (e *Editor) notifyChange(kind string) {
	observability.Editor().OnMutation(context.Background(), e.id, kind, e.store.NodeCount(), e.store.EdgeCount())
	if e.cb.OnChange != nil {
		e.cb.OnChange(e.store.GetState())
	}
}
