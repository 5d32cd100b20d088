package focus

import (
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"

	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/logger"
)

// X11Gate answers focus queries against the X server: the root
// window's _NET_ACTIVE_WINDOW property names the focused window, whose
// title is matched case-insensitively against the configured targets.
// Query failures report inactive; automating into an unknown window is
// the one thing the gate exists to prevent.
type X11Gate struct {
	titles   []string
	interval time.Duration
	log      *zap.SugaredLogger

	mu         sync.Mutex
	conn       *xgb.Conn
	root       xproto.Window
	activeAtom xproto.Atom
	nameAtom   xproto.Atom
	wmNameAtom xproto.Atom
}

// NewX11Gate connects to the X server and interns the atoms the gate
// polls. Callers own the returned gate's Close.
func NewX11Gate(titles []string, checkInterval time.Duration) (*X11Gate, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	g := &X11Gate{
		titles:   titles,
		interval: checkInterval,
		log:      logger.AddGateSymbol(logger.Base()),
		conn:     conn,
		root:     xproto.Setup(conn).DefaultScreen(conn).Root,
	}
	if g.interval <= 0 {
		g.interval = DefaultCheckInterval
	}

	for name, dst := range map[string]*xproto.Atom{
		"_NET_ACTIVE_WINDOW": &g.activeAtom,
		"_NET_WM_NAME":       &g.nameAtom,
		"WM_NAME":            &g.wmNameAtom,
	} {
		atom, err := internAtom(conn, name)
		if err != nil {
			conn.Close()
			return nil, err
		}
		*dst = atom
	}

	return g, nil
}

func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to intern atom %s", name)
	}
	return reply.Atom, nil
}

func (g *X11Gate) Active() bool {
	title, err := g.activeWindowTitle()
	if err != nil {
		g.log.Warnw("Active window query failed",
			logger.FieldError, err)
		return false
	}
	return MatchTitle(title, g.titles)
}

func (g *X11Gate) CheckInterval() time.Duration {
	return g.interval
}

// Close releases the X connection.
func (g *X11Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conn.Close()
}

func (g *X11Gate) activeWindowTitle() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prop, err := xproto.GetProperty(g.conn, false, g.root, g.activeAtom, xproto.AtomWindow, 0, 1).Reply()
	if err != nil {
		return "", errors.Wrap(err, "failed to read _NET_ACTIVE_WINDOW")
	}
	if prop.ValueLen == 0 || len(prop.Value) < 4 {
		return "", nil
	}

	active := xproto.Window(xgb.Get32(prop.Value))
	if active == 0 {
		return "", nil
	}
	return g.windowTitle(active)
}

// windowTitle prefers the UTF-8 _NET_WM_NAME and falls back to the
// legacy WM_NAME.
func (g *X11Gate) windowTitle(win xproto.Window) (string, error) {
	prop, err := xproto.GetProperty(g.conn, false, win, g.nameAtom, xproto.AtomAny, 0, (1<<32)-1).Reply()
	if err == nil && prop.ValueLen > 0 {
		return string(prop.Value), nil
	}

	prop, err = xproto.GetProperty(g.conn, false, win, g.wmNameAtom, xproto.AtomAny, 0, (1<<32)-1).Reply()
	if err != nil {
		return "", errors.Wrap(err, "failed to read WM_NAME")
	}
	return string(prop.Value), nil
}
