package dusk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang/glog"
)

type ApiSettings struct {
	HttpTimeout        time.Duration
	HttpConnectTimeout time.Duration
	HttpTlsTimeout     time.Duration
}

func DefaultApiSettings() *ApiSettings {
	return &ApiSettings{
		HttpTimeout:        60 * time.Second,
		HttpConnectTimeout: 5 * time.Second,
		HttpTlsTimeout:     5 * time.Second,
	}
}

func newClient(settings *ApiSettings) *http.Client {
	// see https://medium.com/@nate510/don-t-use-go-s-default-http-client-4804cb19f779
	dialer := &net.Dialer{
		Timeout: settings.HttpConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: settings.HttpTlsTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   settings.HttpTimeout,
	}
}

type apiCallback[R any] interface {
	Result(result R, err error)
}

// for internal use
type simpleApiCallback[R any] struct {
	callback func(result R, err error)
}

func NewApiCallback[R any](callback func(result R, err error)) apiCallback[R] {
	return &simpleApiCallback[R]{
		callback: callback,
	}
}

func (self *simpleApiCallback[R]) Result(result R, err error) {
	self.callback(result, err)
}

type ApiCallbackResult[R any] struct {
	Result R
	Error  error
}

// the channel is buffered so an abandoned wait does not block the request goroutine
func NewBlockingApiCallback[R any]() (apiCallback[R], chan ApiCallbackResult[R]) {
	c := make(chan ApiCallbackResult[R], 1)
	apiCallback := NewApiCallback[R](func(result R, err error) {
		c <- ApiCallbackResult[R]{
			Result: result,
			Error:  err,
		}
	})
	return apiCallback, c
}

func awaitApi[R any](ctx context.Context, call func(callback apiCallback[R])) (R, error) {
	callback, c := NewBlockingApiCallback[R]()
	call(callback)
	select {
	case <-ctx.Done():
		var empty R
		return empty, ctx.Err()
	case result := <-c:
		return result.Result, result.Error
	}
}

// REST surface of the messaging service.
// Implements `Publisher` and `Acknowledger`.
type Api struct {
	ctx    context.Context
	cancel context.CancelFunc

	apiUrl string
	token  string

	client *http.Client
}

func NewApiWithDefaults(ctx context.Context, apiUrl string, token string) *Api {
	return NewApi(ctx, apiUrl, token, DefaultApiSettings())
}

func NewApi(ctx context.Context, apiUrl string, token string, settings *ApiSettings) *Api {
	cancelCtx, cancel := context.WithCancel(ctx)

	return &Api{
		ctx:    cancelCtx,
		cancel: cancel,
		apiUrl: strings.TrimSuffix(apiUrl, "/"),
		token:  token,
		client: newClient(settings),
	}
}

func (self *Api) Close() {
	self.cancel()
}

// the request ends when either the call or the api is done
func (self *Api) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	callCtx, callCancel := context.WithCancel(ctx)
	stop := context.AfterFunc(self.ctx, callCancel)
	return callCtx, func() {
		stop()
		callCancel()
	}
}

type InteractionCallbackType string

const (
	// acknowledge a command now and edit the original response later
	InteractionCallbackDeferredChannelMessage InteractionCallbackType = "deferred_channel_message"
	// respond to a command with a message
	InteractionCallbackChannelMessage InteractionCallbackType = "channel_message"
	// acknowledge a component event without changing the message
	InteractionCallbackDeferredUpdateMessage InteractionCallbackType = "deferred_update_message"
)

type InteractionCallbackCallback apiCallback[*InteractionCallbackResult]

type InteractionCallbackArgs struct {
	Type      InteractionCallbackType `json:"type"`
	Ephemeral bool                    `json:"ephemeral,omitempty"`
	Message   *Message                `json:"message,omitempty"`
}

type InteractionCallbackResult struct {
	// set when the callback created a message
	MessageId *Id `json:"message_id,omitempty"`
}

func (self *Api) InteractionCallback(ctx context.Context, event *Event, interactionCallback *InteractionCallbackArgs, callback InteractionCallbackCallback) {
	callCtx, callCancel := self.callContext(ctx)
	go func() {
		defer callCancel()
		request(
			callCtx,
			self.client,
			"POST",
			fmt.Sprintf("%s/interactions/%s/%s/callback", self.apiUrl, event.Id, url.PathEscape(event.Token)),
			interactionCallback,
			self.token,
			&InteractionCallbackResult{},
			callback,
		)
	}()
}

type EditOriginalCallback apiCallback[*MessageResult]

type MessageResult struct {
	Id Id `json:"id"`
}

func (self *Api) EditOriginal(ctx context.Context, event *Event, message *Message, callback EditOriginalCallback) {
	callCtx, callCancel := self.callContext(ctx)
	go func() {
		defer callCancel()
		request(
			callCtx,
			self.client,
			"PATCH",
			fmt.Sprintf("%s/webhooks/%s/messages/@original", self.apiUrl, url.PathEscape(event.Token)),
			message,
			self.token,
			&MessageResult{},
			callback,
		)
	}()
}

// Publisher implementation

func (self *Api) Create(ctx context.Context, origin *Event, message *Message, options CreateOptions) (Id, error) {
	if options.Deferred {
		_, err := awaitApi(ctx, func(callback apiCallback[*InteractionCallbackResult]) {
			self.InteractionCallback(ctx, origin, &InteractionCallbackArgs{
				Type:      InteractionCallbackDeferredChannelMessage,
				Ephemeral: options.Ephemeral,
			}, callback)
		})
		if err != nil {
			return Id{}, err
		}
		return self.Update(ctx, origin, Id{}, message)
	}

	result, err := awaitApi(ctx, func(callback apiCallback[*InteractionCallbackResult]) {
		self.InteractionCallback(ctx, origin, &InteractionCallbackArgs{
			Type:      InteractionCallbackChannelMessage,
			Ephemeral: options.Ephemeral,
			Message:   message,
		}, callback)
	})
	if err != nil {
		return Id{}, err
	}
	if result == nil || result.MessageId == nil {
		return Id{}, errors.New("Response missing message id.")
	}
	return *result.MessageId, nil
}

// the session edits the original response of its origin event, so `messageId` is informational
func (self *Api) Update(ctx context.Context, origin *Event, messageId Id, message *Message) (Id, error) {
	result, err := awaitApi(ctx, func(callback apiCallback[*MessageResult]) {
		self.EditOriginal(ctx, origin, message, callback)
	})
	if err != nil {
		return Id{}, err
	}
	if result == nil {
		return Id{}, errors.New("Response missing message.")
	}
	glog.V(2).Infof("[api]edit original m(%s)\n", result.Id)
	return result.Id, nil
}

// Acknowledger implementation

func (self *Api) AckDeferred(ctx context.Context, event *Event) error {
	_, err := awaitApi(ctx, func(callback apiCallback[*InteractionCallbackResult]) {
		self.InteractionCallback(ctx, event, &InteractionCallbackArgs{
			Type: InteractionCallbackDeferredUpdateMessage,
		}, callback)
	})
	return err
}

func request[R any](ctx context.Context, client *http.Client, method string, url string, args any, token string, result R, callback apiCallback[R]) (R, error) {
	var requestBodyBytes []byte
	if args == nil {
		requestBodyBytes = make([]byte, 0)
	} else {
		var err error
		requestBodyBytes, err = json.Marshal(args)
		if err != nil {
			var empty R
			callback.Result(empty, err)
			return empty, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(requestBodyBytes))
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	req.Header.Add("Content-Type", "application/json")

	if token != "" {
		auth := fmt.Sprintf("Bearer %s", token)
		req.Header.Add("Authorization", auth)
	}

	r, err := client.Do(req)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}
	defer r.Body.Close()

	responseBodyBytes, err := io.ReadAll(r.Body)

	if http.StatusOK != r.StatusCode {
		// the response body is the error message
		errorMessage := strings.TrimSpace(string(responseBodyBytes))
		err = fmt.Errorf("%s %s: %d %s", method, req.URL.Path, r.StatusCode, errorMessage)
		glog.Infof("[api]%s\n", err)
		callback.Result(result, err)
		return result, err
	}

	if err != nil {
		callback.Result(result, err)
		return result, err
	}

	if 0 < len(responseBodyBytes) {
		err = json.Unmarshal(responseBodyBytes, &result)
		if err != nil {
			var empty R
			callback.Result(empty, err)
			return empty, err
		}
	}

	callback.Result(result, nil)
	return result, nil
}
