package wsserver

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/loglayer/loglayer/internal/bridge"
	"github.com/loglayer/loglayer/internal/logx"
	"github.com/loglayer/loglayer/internal/pipeline"
	"github.com/loglayer/loglayer/internal/search"
)

// Server is the echo-routed HTTP binding of a bridge.Bridge, plus the
// WebSocket endpoint events are broadcast over. Grounded in structure on
// the bridge's own New(deps...) constructor idiom, not on a teacher HTTP
// server — see the package doc comment in protocol.go.
type Server struct {
	echo   *echo.Echo
	bridge *bridge.Bridge
	hub    *Hub
	log    logx.Logger
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// New builds a Server routing the request surface in spec.md §6 to b, with
// events broadcast over hub (also the bridge's events.Sink, wired by the
// caller at bridge.New time). A nil logger defaults to logx.NopLogger.
func New(b *bridge.Bridge, hub *Hub, log logx.Logger) *Server {
	if log == nil {
		log = logx.NopLogger{}
	}
	s := &Server{echo: echo.New(), bridge: b, hub: hub, log: log}
	s.echo.HideBanner = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.Logger())
	s.routes()
	return s
}

// Start serves HTTP on addr, blocking until the context is cancelled or
// the listener fails.
func (s *Server) Start(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() { errc <- s.echo.Start(addr) }()
	select {
	case <-ctx.Done():
		return s.echo.Shutdown(context.Background())
	case err := <-errc:
		return err
	}
}

func (s *Server) routes() {
	s.echo.GET("/events", s.handleEvents)

	api := s.echo.Group("/api/files")
	api.POST("", s.handleOpenFile)
	api.DELETE("/:id", s.handleCloseFile)
	api.POST("/:id/layers", s.handleSyncLayers)
	api.POST("/:id/decorations", s.handleSyncDecorations)
	api.POST("/:id/search", s.handleSearch)
	api.GET("/:id/lines", s.handleReadProcessedLines)
	api.POST("/:id/lines/by-index", s.handleGetLinesByIndices)
	api.GET("/:id/search/match/:rank", s.handleGetSearchMatchIndex)
	api.GET("/:id/search/matches", s.handleGetSearchMatchesRange)
	api.GET("/:id/search/nearest", s.handleGetNearestSearchRank)
	api.GET("/:id/visual/:phys", s.handlePhysicalToVisualIndex)
	api.POST("/:id/bookmarks/:line", s.handleToggleBookmark)
	api.POST("/:id/bookmarks/:line/comment", s.handleUpdateBookmarkComment)
	api.GET("/:id/bookmarks", s.handleGetBookmarks)
	api.DELETE("/:id/bookmarks", s.handleClearBookmarks)
	api.GET("/:id/bookmarks/nearest", s.handleGetNearestBookmarkIndex)

	s.echo.GET("/api/layer-registry", s.handleGetLayerRegistry)
	s.echo.POST("/api/plugins/reload", s.handleReloadPlugins)
}

// handleEvents upgrades to a WebSocket connection added to the Hub; the
// connection receives every broadcast event until it disconnects.
func (s *Server) handleEvents(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	conn := s.hub.add(ws)
	defer s.hub.remove(conn)

	// The client never sends request frames over this socket (requests go
	// through the HTTP routes above) — read only to detect disconnection.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (s *Server) handleOpenFile(c echo.Context) error {
	var req openFileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.bridge.OpenFile(c.Request().Context(), req.FileID, req.Path); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleCloseFile(c echo.Context) error {
	s.bridge.CloseFile(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func toLayerSpecs(wire []layerSpecWire) []bridge.LayerSpec {
	out := make([]bridge.LayerSpec, len(wire))
	for i, w := range wire {
		out[i] = bridge.LayerSpec{ID: w.ID, TypeID: w.TypeID, Enabled: w.Enabled, Config: w.Config}
	}
	return out
}

func toSearchConfig(w *searchConfigWire) *pipeline.SearchConfig {
	if w == nil {
		return nil
	}
	return &pipeline.SearchConfig{Query: w.Query, IsRegex: w.IsRegex, CaseSensitive: w.CaseSensitive, WholeWord: w.WholeWord}
}

func (s *Server) handleSyncLayers(c echo.Context) error {
	var req syncLayersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.bridge.SyncLayers(c.Param("id"), toLayerSpecs(req.Layers), toSearchConfig(req.Search)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleSyncDecorations(c echo.Context) error {
	var req syncDecorationsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.bridge.SyncDecorations(c.Param("id"), toLayerSpecs(req.Layers)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cfg := toSearchConfig(&req.Search)
	if err := s.bridge.Search(c.Param("id"), cfg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleReadProcessedLines(c echo.Context) error {
	start := queryInt(c, "start", 0)
	count := queryInt(c, "count", 100)
	rows := s.bridge.ReadProcessedLines(c.Param("id"), start, count)
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) handleGetLinesByIndices(c echo.Context) error {
	var indices []int
	if err := c.Bind(&indices); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rows := s.bridge.GetLinesByIndices(c.Param("id"), indices)
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) handleGetSearchMatchIndex(c echo.Context) error {
	rank := queryIntParam(c, "rank", 0)
	return c.JSON(http.StatusOK, s.bridge.GetSearchMatchIndex(c.Param("id"), rank))
}

func (s *Server) handleGetSearchMatchesRange(c echo.Context) error {
	start := queryInt(c, "start", 0)
	count := queryInt(c, "count", 100)
	return c.JSON(http.StatusOK, s.bridge.GetSearchMatchesRange(c.Param("id"), start, count))
}

func (s *Server) handleGetNearestSearchRank(c echo.Context) error {
	cur := queryInt(c, "current", 0)
	dir := parseDirection(c.QueryParam("dir"))
	rank, ok := s.bridge.GetNearestSearchRank(c.Param("id"), cur, dir)
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, rank)
}

func (s *Server) handlePhysicalToVisualIndex(c echo.Context) error {
	phys := queryIntParam(c, "phys", 0)
	return c.JSON(http.StatusOK, s.bridge.PhysicalToVisualIndex(c.Param("id"), phys))
}

func (s *Server) handleToggleBookmark(c echo.Context) error {
	line := queryIntParam(c, "line", 0)
	s.bridge.ToggleBookmark(c.Param("id"), line)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleUpdateBookmarkComment(c echo.Context) error {
	line := queryIntParam(c, "line", 0)
	var req bookmarkCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.bridge.UpdateBookmarkComment(c.Param("id"), line, req.Text)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleGetBookmarks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.bridge.GetBookmarks(c.Param("id")))
}

func (s *Server) handleClearBookmarks(c echo.Context) error {
	s.bridge.ClearBookmarks(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleGetNearestBookmarkIndex(c echo.Context) error {
	cur := queryInt(c, "current", 0)
	dir := parseDirection(c.QueryParam("dir"))
	phys, ok := s.bridge.GetNearestBookmarkIndex(c.Param("id"), cur, dir)
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, phys)
}

func (s *Server) handleGetLayerRegistry(c echo.Context) error {
	return c.JSON(http.StatusOK, s.bridge.GetLayerRegistry())
}

func (s *Server) handleReloadPlugins(c echo.Context) error {
	dir := c.QueryParam("dir")
	loaded, err := s.bridge.ReloadPlugins(dir)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, loaded)
}

func parseDirection(s string) search.Direction {
	if s == "prev" {
		return search.Prev
	}
	return search.Next
}

func queryInt(c echo.Context, name string, def int) int {
	return parseIntOr(c.QueryParam(name), def)
}

func queryIntParam(c echo.Context, name string, def int) int {
	return parseIntOr(c.Param(name), def)
}

func parseIntOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
