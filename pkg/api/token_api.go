package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	apiErrs "github.com/wavesplatform/etoken/pkg/api/errors"
	"github.com/wavesplatform/etoken/pkg/proto"
	"github.com/wavesplatform/etoken/pkg/util/connlimit"
)

// ApiKeyHeader is an HTTP header name for API Key
const ApiKeyHeader = "X-API-Key" // #nosec: it's a header name

type TokenApi struct {
	app *App
}

func NewTokenApi(app *App) *TokenApi {
	return &TokenApi{app: app}
}

func trySendJson(w io.Writer, v interface{}) error {
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %T to JSON and write it to %T", v, w)
	}
	return nil
}

func symbolParam(r *http.Request) (proto.Symbol, error) {
	s, err := proto.NewSymbolFromString(chi.URLParam(r, "symbol"))
	if err != nil {
		return proto.Symbol{}, apiErrs.InvalidSymbol
	}
	return s, nil
}

func addressParam(r *http.Request, key string) (proto.Address, error) {
	a, err := proto.NewAddressFromString(chi.URLParam(r, key))
	if err != nil {
		return proto.Address{}, apiErrs.InvalidAddress
	}
	return a, nil
}

func (a *TokenApi) Asset(w http.ResponseWriter, r *http.Request) error {
	symbol, err := symbolParam(r)
	if err != nil {
		return err
	}
	info, err := a.app.Asset(symbol)
	if err != nil {
		return errors.Wrap(err, "Asset")
	}
	return trySendJson(w, info)
}

func (a *TokenApi) Balance(w http.ResponseWriter, r *http.Request) error {
	symbol, err := symbolParam(r)
	if err != nil {
		return err
	}
	holder, err := addressParam(r, "address")
	if err != nil {
		return err
	}
	info, err := a.app.Balance(symbol, holder)
	if err != nil {
		return errors.Wrap(err, "Balance")
	}
	return trySendJson(w, info)
}

func (a *TokenApi) Allowance(w http.ResponseWriter, r *http.Request) error {
	symbol, err := symbolParam(r)
	if err != nil {
		return err
	}
	owner, err := addressParam(r, "owner")
	if err != nil {
		return err
	}
	spender, err := addressParam(r, "spender")
	if err != nil {
		return err
	}
	info, err := a.app.Allowance(symbol, owner, spender)
	if err != nil {
		return errors.Wrap(err, "Allowance")
	}
	return trySendJson(w, info)
}

func (a *TokenApi) Gateway(w http.ResponseWriter, r *http.Request) error {
	symbol, err := symbolParam(r)
	if err != nil {
		return err
	}
	info, err := a.app.Gateway(symbol)
	if err != nil {
		return errors.Wrap(err, "Gateway")
	}
	return trySendJson(w, info)
}

func (a *TokenApi) VersionFor(w http.ResponseWriter, r *http.Request) error {
	symbol, err := symbolParam(r)
	if err != nil {
		return err
	}
	holder, err := addressParam(r, "address")
	if err != nil {
		return err
	}
	info, err := a.app.VersionFor(symbol, holder)
	if err != nil {
		return errors.Wrap(err, "VersionFor")
	}
	return trySendJson(w, info)
}

func (a *TokenApi) ResolveICAP(w http.ResponseWriter, r *http.Request) error {
	code, err := addressParam(r, "code")
	if err != nil {
		return apiErrs.InvalidICAP
	}
	info, err := a.app.ResolveICAP(code)
	if err != nil {
		return errors.Wrap(err, "ResolveICAP")
	}
	return trySendJson(w, info)
}

func (a *TokenApi) EventsLength(w http.ResponseWriter, _ *http.Request) error {
	return trySendJson(w, a.app.EventsLength())
}

func (a *TokenApi) Events(w http.ResponseWriter, r *http.Request) error {
	from, err := strconv.ParseUint(chi.URLParam(r, "from"), 10, 64)
	if err != nil {
		return &BadRequestError{err}
	}
	to, err := strconv.ParseUint(chi.URLParam(r, "to"), 10, 64)
	if err != nil {
		return &BadRequestError{err}
	}
	evs, err := a.app.Events(from, to)
	if err != nil {
		return errors.Wrap(err, "Events")
	}
	return trySendJson(w, evs)
}

func (a *TokenApi) Call(w http.ResponseWriter, r *http.Request) error {
	symbol, err := symbolParam(r)
	if err != nil {
		return err
	}
	method := chi.URLParam(r, "method")
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apiErrs.InvalidJSON
	}
	info, err := a.app.Call(r.Context(), symbol, method, req)
	if err != nil {
		return errors.Wrapf(err, "Call %s", method)
	}
	return trySendJson(w, info)
}

func Run(ctx context.Context, address string, a *TokenApi, opts *RunOptions) error {
	if opts == nil {
		opts = DefaultRunOptions()
	}
	routes, err := a.routes(opts)
	if err != nil {
		return errors.Wrap(err, "failed to create routes")
	}
	apiServer := &http.Server{Addr: address, Handler: routes, ReadHeaderTimeout: defaultReadHeaderTimeout}
	go func() {
		<-ctx.Done()
		zap.S().Named("api").Info("Shutting down API...")
		err := apiServer.Shutdown(context.Background())
		if err != nil {
			zap.S().Named("api").Errorf("Failed to shutdown API server: %v", err)
		}
	}()
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", address)
	}
	if opts.MaxConnections > 0 {
		ln = connlimit.New(ln, opts.MaxConnections, connlimit.DefaultEvictTimeout)
	}
	err = apiServer.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
