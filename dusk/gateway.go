package dusk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// The gateway is the inbound side of the messaging service. It holds a
// websocket to the service and feeds every event frame to the correlator
// (component events) or to the command callbacks (command events).
//
// Wire protocol:
// - the client sends an auth frame and the service echoes the same bytes
// - the service sends event frames
// - an empty binary message in either direction is a ping

type GatewaySettings struct {
	WsHandshakeTimeout time.Duration
	AuthTimeout        time.Duration
	ReconnectTimeout   time.Duration
	PingTimeout        time.Duration
	WriteTimeout       time.Duration
	ReadTimeout        time.Duration
	// bounds the acknowledgement of a matched event
	DeliverTimeout time.Duration
}

func DefaultGatewaySettings() *GatewaySettings {
	return &GatewaySettings{
		WsHandshakeTimeout: 2 * time.Second,
		AuthTimeout:        2 * time.Second,
		ReconnectTimeout:   5 * time.Second,
		PingTimeout:        1 * time.Second,
		WriteTimeout:       5 * time.Second,
		ReadTimeout:        15 * time.Second,
		DeliverTimeout:     3 * time.Second,
	}
}

type GatewayAuth struct {
	// application token
	Token      string
	InstanceId Id
	AppVersion string
}

func (self *GatewayAuth) ApplicationId() (string, error) {
	applicationJwt, err := ParseApplicationJwtUnverified(self.Token)
	if err != nil {
		return "", err
	}
	return applicationJwt.ApplicationId, nil
}

type gatewayAuthData struct {
	Token      string `json:"token"`
	InstanceId Id     `json:"instance_id"`
	AppVersion string `json:"app_version"`
}

type CommandFunction func(event *Event)

// called for component events that no session is waiting on
type UnmatchedFunction func(event *Event)

type Gateway struct {
	ctx    context.Context
	cancel context.CancelFunc

	gatewayUrl   string
	auth         *GatewayAuth
	correlator   *Correlator
	acknowledger Acknowledger

	settings *GatewaySettings

	commandCallbacks   *CallbackList[CommandFunction]
	unmatchedCallbacks *CallbackList[UnmatchedFunction]
}

func NewGatewayWithDefaults(
	ctx context.Context,
	gatewayUrl string,
	auth *GatewayAuth,
	correlator *Correlator,
	acknowledger Acknowledger,
) *Gateway {
	return NewGateway(ctx, gatewayUrl, auth, correlator, acknowledger, DefaultGatewaySettings())
}

func NewGateway(
	ctx context.Context,
	gatewayUrl string,
	auth *GatewayAuth,
	correlator *Correlator,
	acknowledger Acknowledger,
	settings *GatewaySettings,
) *Gateway {
	cancelCtx, cancel := context.WithCancel(ctx)
	gateway := &Gateway{
		ctx:                cancelCtx,
		cancel:             cancel,
		gatewayUrl:         gatewayUrl,
		auth:               auth,
		correlator:         correlator,
		acknowledger:       acknowledger,
		settings:           settings,
		commandCallbacks:   NewCallbackList[CommandFunction](),
		unmatchedCallbacks: NewCallbackList[UnmatchedFunction](),
	}
	go gateway.run()
	return gateway
}

// returns a function that removes the callback
func (self *Gateway) AddCommandCallback(commandCallback CommandFunction) func() {
	callbackId := self.commandCallbacks.Add(commandCallback)
	return func() {
		self.commandCallbacks.Remove(callbackId)
	}
}

// returns a function that removes the callback
func (self *Gateway) AddUnmatchedCallback(unmatchedCallback UnmatchedFunction) func() {
	callbackId := self.unmatchedCallbacks.Add(unmatchedCallback)
	return func() {
		self.unmatchedCallbacks.Remove(callbackId)
	}
}

func (self *Gateway) run() {
	defer self.cancel()

	applicationId, err := self.auth.ApplicationId()
	if err != nil {
		// the service rejects the token if it is bad
		glog.Infof("[gw]token error = %s\n", err)
	}

	authBytes, err := EncodeFrame(FrameOpAuth, &gatewayAuthData{
		Token:      self.auth.Token,
		InstanceId: self.auth.InstanceId,
		AppVersion: self.auth.AppVersion,
	})
	if err != nil {
		glog.Infof("[gw]auth encode error = %s\n", err)
		return
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: self.settings.WsHandshakeTimeout,
	}

	for {
		reconnect := NewReconnect(self.settings.ReconnectTimeout)
		connect := func() (*websocket.Conn, error) {
			ws, _, err := dialer.DialContext(self.ctx, self.gatewayUrl, nil)
			if err != nil {
				return nil, err
			}

			success := false
			defer func() {
				if !success {
					ws.Close()
				}
			}()

			ws.SetWriteDeadline(time.Now().Add(self.settings.AuthTimeout))
			if err := ws.WriteMessage(websocket.BinaryMessage, authBytes); err != nil {
				return nil, err
			}
			ws.SetReadDeadline(time.Now().Add(self.settings.AuthTimeout))
			if messageType, message, err := ws.ReadMessage(); err != nil {
				return nil, err
			} else {
				// verify the auth echo
				switch messageType {
				case websocket.BinaryMessage:
					if !bytes.Equal(authBytes, message) {
						return nil, fmt.Errorf("Auth response error: bad bytes.")
					}
				default:
					return nil, fmt.Errorf("Auth response error.")
				}
			}

			success = true
			return ws, nil
		}

		var ws *websocket.Conn
		if glog.V(2) {
			ws, err = TraceWithReturnError(fmt.Sprintf("[gw]connect %s", applicationId), connect)
		} else {
			ws, err = connect()
		}
		if err != nil {
			glog.Infof("[gw]auth error %s = %s\n", applicationId, err)
			select {
			case <-self.ctx.Done():
				return
			case <-reconnect.After():
				continue
			}
		}

		c := func() {
			defer ws.Close()

			group, groupCtx := errgroup.WithContext(self.ctx)

			group.Go(func() error {
				// unblocks the reader
				<-groupCtx.Done()
				ws.Close()
				return nil
			})

			group.Go(func() error {
				ticker := time.NewTicker(self.settings.PingTimeout)
				defer ticker.Stop()
				for {
					select {
					case <-groupCtx.Done():
						return nil
					case <-ticker.C:
						ws.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
						if err := ws.WriteMessage(websocket.BinaryMessage, make([]byte, 0)); err != nil {
							// note that for websocket a dealine timeout cannot be recovered
							return fmt.Errorf("ping: %w", err)
						}
					}
				}
			})

			group.Go(func() error {
				for {
					ws.SetReadDeadline(time.Now().Add(self.settings.ReadTimeout))
					messageType, message, err := ws.ReadMessage()
					if err != nil {
						return fmt.Errorf("read: %w", err)
					}

					switch messageType {
					case websocket.BinaryMessage:
						if 0 == len(message) {
							// ping
							glog.V(2).Infof("[gw]ping %s<-\n", applicationId)
							continue
						}
						self.receive(message)
					default:
						glog.V(2).Infof("[gw]other=%d %s<-\n", messageType, applicationId)
					}
				}
			})

			if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				select {
				case <-self.ctx.Done():
				default:
					glog.Infof("[gw]%s error = %s\n", applicationId, err)
				}
			}
		}
		reconnect = NewReconnect(self.settings.ReconnectTimeout)
		if glog.V(2) {
			Trace(fmt.Sprintf("[gw]connect run %s", applicationId), c)
		} else {
			c()
		}
		select {
		case <-self.ctx.Done():
			return
		case <-reconnect.After():
		}
	}
}

func (self *Gateway) receive(message []byte) {
	event := &Event{}
	op, err := DecodeFrame(message, event)
	if err != nil {
		glog.Infof("[gw]drop bad frame = %s\n", err)
		return
	}
	if op != FrameOpEvent {
		glog.V(2).Infof("[gw]drop op=%s\n", op)
		return
	}
	glog.V(2).Infof("[gw]<-%s\n", event)

	// handlers block (command callbacks run whole sessions), so each event gets its own goroutine
	go HandleError(func() {
		self.handleEvent(event)
	})
}

func (self *Gateway) handleEvent(event *Event) {
	switch event.Kind {
	case EventKindCommand:
		for _, commandCallback := range self.commandCallbacks.Get() {
			commandCallback(event)
		}
	case EventKindComponent:
		if !event.IsComponent() {
			glog.Infof("[gw]drop component event without message %s\n", event)
			return
		}
		deliverCtx, deliverCancel := context.WithTimeout(self.ctx, self.settings.DeliverTimeout)
		defer deliverCancel()
		result, err := self.correlator.Deliver(deliverCtx, event, self.acknowledger)
		if err != nil {
			// the waiting session receives the error
			return
		}
		if !result.Matched && !result.Duplicate {
			for _, unmatchedCallback := range self.unmatchedCallbacks.Get() {
				unmatchedCallback(event)
			}
		}
	default:
		glog.V(2).Infof("[gw]drop %s\n", event)
	}
}

func (self *Gateway) Close() {
	self.cancel()
}

func (self *Gateway) Done() <-chan struct{} {
	return self.ctx.Done()
}
