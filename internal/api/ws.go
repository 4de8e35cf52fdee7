package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"vgsales-dash/internal/dashboard"
	"vgsales-dash/internal/dataset"
	"vgsales-dash/internal/filter"
	"vgsales-dash/internal/logger"
	"vgsales-dash/internal/metrics"
	"vgsales-dash/internal/options"
	"vgsales-dash/internal/scene"
	"vgsales-dash/internal/views"
)

const (
	wsWriteWait    = 10 * time.Second
	wsMaxMessage   = 4096
	wsWriteBufSize = 1 << 16
)

var upgrader = websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: wsWriteBufSize}

// 帧类型
const (
	FrameHello    = "hello"
	FrameCharts   = "charts"
	FrameMap      = "map"
	FrameMapError = "map_error"
	FrameError    = "error"
)

// clientMessage：客户端筛选事件 {"type":"select","platform":..,"genre":..,"region":..}
type clientMessage struct {
	Type     string `json:"type"`
	Platform string `json:"platform"`
	Genre    string `json:"genre"`
	Region   string `json:"region"`
}

// Frame：服务端推送帧
// 约束：charts 与 map 帧携带计算它们的事件序号；map 帧可能晚于后续事件的 charts 帧到达
type Frame struct {
	Type    string                `json:"type"`
	Seq     uint64                `json:"seq,omitempty"`
	Session string                `json:"session,omitempty"`
	Options *options.Options      `json:"options,omitempty"`
	Charts  *dashboard.Charts     `json:"charts,omitempty"`
	Map     *dashboard.MapView    `json:"map,omitempty"`
	Diff    map[string]scene.Diff `json:"diff,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// 文档注释：事件通道会话
// 背景：hello 之后不主动渲染，页面在连接建立时发送当前筛选作为第一个事件；
// 每个筛选事件先同步推送柱状图与折线图，地图在独立 goroutine 中获取几何后推送；
// 同一连接的写入与上一帧场景由 mu 保护，差异按视图与上一次推送的场景计算。
type session struct {
	id      string
	conn    *websocket.Conn
	h       *Handler
	log     *slog.Logger
	ip      string
	visitor string

	mu   sync.Mutex
	prev map[string]*scene.Scene

	seq uint64
	wg  sync.WaitGroup
}

func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	st := h.deps.Service.State()
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "DATASET_NOT_READY", dashboard.ErrNoDataset.Error())
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.From(r.Context()).Debug("ws_upgrade_error", "err", err)
		return
	}
	s := &session{
		id:      uuid.NewString(),
		conn:    conn,
		h:       h,
		ip:      clientAddr(r),
		visitor: h.visitorRegion(r),
		prev:    map[string]*scene.Scene{},
	}
	s.log = logger.From(r.Context()).With("session", s.id)
	metrics.WSSessions.Inc()
	s.log.Debug("ws_open", "ip", s.ip)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.wg.Wait()
		_ = conn.Close()
		metrics.WSSessions.Dec()
		s.log.Debug("ws_close", "events", s.seq)
	}()

	opts := st.Options
	if err := s.send(Frame{Type: FrameHello, Session: s.id, Options: &opts}, nil); err != nil {
		return
	}
	s.loop(ctx)
}

func (s *session) loop(ctx context.Context) {
	s.conn.SetReadLimit(wsMaxMessage)
	for {
		var msg clientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("ws_read_error", "err", err)
			}
			return
		}
		if msg.Type != "select" {
			_ = s.send(Frame{Type: FrameError, Error: "unknown message type " + msg.Type}, nil)
			continue
		}
		sel := filter.Default()
		if msg.Platform != "" {
			sel.Platform = msg.Platform
		}
		if msg.Genre != "" {
			sel.Genre = msg.Genre
		}
		if msg.Region != "" {
			sel.Region = dataset.RegionKey(msg.Region)
		}
		s.handle(ctx, sel)
	}
}

// handle：处理一次筛选事件
func (s *session) handle(ctx context.Context, sel filter.Selection) {
	s.seq++
	seq := s.seq
	svc := s.h.deps.Service
	f, err := svc.Prepare(seq, sel)
	if err != nil {
		_ = s.send(Frame{Type: FrameError, Seq: seq, Error: err.Error()}, nil)
		return
	}
	s.h.account(ctx, s.ip, sel)

	charts, err := svc.RenderCharts(f)
	if err != nil {
		s.log.Error("render_error", "seq", seq, "err", err)
		_ = s.send(Frame{Type: FrameError, Seq: seq, Error: err.Error()}, nil)
		return
	}
	if err := s.send(Frame{Type: FrameCharts, Seq: seq, Charts: charts}, map[string]*scene.Scene{"bar": charts.Bar, "line": charts.Line}); err != nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		mv, err := svc.RenderMap(ctx, f)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.forget("bubble")
			_ = s.send(Frame{Type: FrameMapError, Seq: seq, Error: err.Error()}, nil)
			return
		}
		mv.Legend = views.MarkVisitor(mv.Legend, s.visitor)
		_ = s.send(Frame{Type: FrameMap, Seq: seq, Map: mv}, map[string]*scene.Scene{"bubble": mv.Scene})
	}()
}

// send：写一帧；scenes 非空时附带与上一次推送场景的差异
func (s *session) send(f Frame, scenes map[string]*scene.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(scenes) > 0 {
		f.Diff = make(map[string]scene.Diff, len(scenes))
		for view, sc := range scenes {
			f.Diff[view] = scene.Reconcile(s.prev[view], sc)
			s.prev[view] = sc
		}
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := s.conn.WriteJSON(f); err != nil {
		s.log.Debug("ws_write_error", "type", f.Type, "seq", f.Seq, "err", err)
		return err
	}
	return nil
}

// forget：视图本轮未绘制，下一次推送按全新场景计算差异
func (s *session) forget(view string) {
	s.mu.Lock()
	delete(s.prev, view)
	s.mu.Unlock()
}
