package consul

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	asrapi "github.com/airenas/podscript/internal/pkg/asr/api"
	"github.com/hashicorp/consul/api"
	"go.uber.org/multierr"
)

const (
	transcribeKey = "transcribe"
	modelKey      = "model"
	isHTTPSSLKey  = "HTTPSSL"
	priorityKey   = "priority"
)

// ClientFactory makes ASR client for base URL and model
type ClientFactory func(urlStr, model string) (asrapi.Client, error)

// Provider keeps ASR vendor endpoints registered in consul and picks one by priority
type Provider struct {
	consul  *api.Client
	srvName string
	factory ClientFactory

	lock    *sync.RWMutex
	clients []*asrWrap
}

type asrWrap struct {
	real     asrapi.Client
	srv      string
	key      string
	priority float64
}

// NewProvider creates consul based ASR provider
func NewProvider(cfg *api.Config, srvNameInConsul string, factory ClientFactory) (*Provider, error) {
	c, err := api.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if srvNameInConsul == "" {
		return nil, fmt.Errorf("no srv name")
	}
	if factory == nil {
		return nil, fmt.Errorf("no client factory")
	}
	return newProvider(c, srvNameInConsul, factory), nil
}

func newProvider(c *api.Client, srvNameInConsul string, factory ClientFactory) *Provider {
	goapp.Log.Info().Str("service", srvNameInConsul).Msg("cfg: ASR srv name in consul")
	return &Provider{consul: c, srvName: srvNameInConsul, factory: factory, lock: &sync.RWMutex{}, clients: make([]*asrWrap, 0)}
}

// Transcribe delegates to a selected ASR endpoint
func (c *Provider) Transcribe(ctx context.Context, audioURL string, sizeBytes int64) asrapi.Result {
	cl, srv, err := c.Get()
	if err != nil {
		return asrapi.Error{Message: err.Error()}
	}
	if cl == nil {
		return asrapi.Error{Message: "no ASR service available"}
	}
	goapp.Log.Debug().Str("component", "asr").Str("service", srv).Msg("selected")
	return cl.Transcribe(ctx, audioURL, sizeBytes)
}

// Get returns a random client weighted by priority, nil if none is registered
func (c *Provider) Get() (asrapi.Client, string, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if len(c.clients) == 0 {
		return nil, "", nil
	}
	if len(c.clients) == 1 {
		t := c.clients[0]
		return t.real, t.srv, nil
	}
	i, err := getRandomByPriority(c.clients)
	if err != nil {
		return nil, "", fmt.Errorf("can't select ASR: %v", err)
	}
	if i < len(c.clients) {
		t := c.clients[i]
		return t.real, t.srv, nil
	}
	return nil, "", nil
}

func getRandomByPriority(wraps []*asrWrap) (int, error) {
	prMax := 0.0
	for _, tr := range wraps {
		prMax += tr.priority
	}
	if prMax < 0.1 {
		return 0, fmt.Errorf("wrong priority sum found %f", prMax)
	}
	rnd := rand.Float64() * prMax
	prMax = 0.0
	for i, tr := range wraps {
		prMax += tr.priority
		if prMax > rnd {
			return i, nil
		}
	}
	return len(wraps), nil
}

// StartRegistryLoop refreshes endpoints until ctx is canceled
func (c *Provider) StartRegistryLoop(ctx context.Context, checkInterval time.Duration) (<-chan struct{}, error) {
	goapp.Log.Info().Msgf("Starting consul service check every %v", checkInterval)
	res := make(chan struct{}, 2)
	go func() {
		defer close(res)
		c.serviceLoop(ctx, checkInterval)
	}()
	return res, nil
}

func (c *Provider) serviceLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	if err := c.check(ctx); err != nil {
		goapp.Log.Error().Err(err).Send()
	}
	for {
		select {
		case <-ticker.C:
			if err := c.check(ctx); err != nil {
				goapp.Log.Error().Err(err).Send()
			}
		case <-ctx.Done():
			goapp.Log.Info().Msgf("Stopped consul timer service")
			return
		}
	}
}

func (c *Provider) check(ctx context.Context) error {
	ctxInt, cf := context.WithTimeout(ctx, time.Second*5)
	defer cf()
	srvs, _, err := c.consul.Health().Service(c.srvName, "", true, (&api.QueryOptions{}).WithContext(ctxInt))
	if err != nil {
		return fmt.Errorf("can't invoke consul: %v", err)
	}
	return c.updateSrv(srvs)
}

func (c *Provider) updateSrv(srvs []*api.ServiceEntry) error {
	goapp.Log.Debug().Msgf("got %d services from consul", len(srvs))
	c.lock.Lock()
	defer c.lock.Unlock()
	ms := map[string]*api.ServiceEntry{}
	for _, s := range srvs {
		ms[key(s)] = s
	}
	keep := []*asrWrap{}
	for _, s := range c.clients {
		if v, ok := ms[s.srv]; ok && s.key == fullKey(v) {
			keep = append(keep, s)
			delete(ms, s.srv)
			continue
		}
		goapp.Log.Warn().Str("service", s.srv).Msgf("dropped ASR")
	}
	if len(keep) == len(c.clients) && len(ms) == 0 {
		return nil
	}
	c.clients = keep
	var err error
	for k, v := range ms {
		w, errInt := c.newClient(k, v)
		if errInt != nil {
			err = multierr.Append(err, errInt)
			continue
		}
		c.clients = append(c.clients, w)
		goapp.Log.Info().Str("service", k).Float64("priority", w.priority).Msg("added ASR")
	}
	return err
}

func (c *Provider) newClient(k string, s *api.ServiceEntry) (*asrWrap, error) {
	urlStr := getURL(s, transcribeKey)
	if urlStr == "" {
		return nil, fmt.Errorf("no %s meta for %s", transcribeKey, k)
	}
	priority, err := getPriority(s)
	if err != nil {
		return nil, fmt.Errorf("can't init ASR for %s: %v", k, err)
	}
	cl, err := c.factory(urlStr, s.Service.Meta[modelKey])
	if err != nil {
		return nil, fmt.Errorf("can't init ASR for %s: %v", k, err)
	}
	return &asrWrap{real: cl, srv: k, key: fullKey(s), priority: priority}, nil
}

func getPriority(s *api.ServiceEntry) (float64, error) {
	v, ok := s.Service.Meta[priorityKey]
	if !ok {
		return 1, nil
	}
	res, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("can't parse priority '%s': %v", v, err)
	}
	if res < 0.5 || res > 50 {
		return 0, fmt.Errorf("wrong priority value '%f', not in [0.5, 50]", res)
	}
	return res, nil
}

func getURL(s *api.ServiceEntry, key string) string {
	v, ok := s.Service.Meta[key]
	if !ok {
		return ""
	}
	ssl := ""
	if isSSL, ok := s.Service.Meta[isHTTPSSLKey]; ok {
		if boolValue, err := strconv.ParseBool(isSSL); err == nil && boolValue {
			ssl = "s"
		}
	}
	return fmt.Sprintf("http%s://%s:%d/%s", ssl, s.Service.Address, s.Service.Port, strings.TrimPrefix(v, "/"))
}

func key(s *api.ServiceEntry) string {
	return fmt.Sprintf("%s:%d", s.Service.Address, s.Service.Port)
}

func fullKey(s *api.ServiceEntry) string {
	res := strings.Builder{}
	for _, key := range [...]string{transcribeKey, modelKey, isHTTPSSLKey, priorityKey} {
		v, ok := s.Service.Meta[key]
		if ok {
			res.WriteString(key + ":" + v + ",")
		}
	}
	return res.String()
}
