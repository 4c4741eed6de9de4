package engine

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wcnotify/internal/domain"
)

// Protocol method names.
const (
	MethodNotifySubscribe            = "wc_notifySubscribe"
	MethodNotifyMessage              = "wc_notifyMessage"
	MethodNotifyDelete               = "wc_notifyDelete"
	MethodNotifyUpdate               = "wc_notifyUpdate"
	MethodNotifyWatchSubscriptions   = "wc_notifyWatchSubscriptions"
	MethodNotifySubscriptionsChanged = "wc_notifySubscriptionsChanged"
)

// requestTTL bounds every outgoing request and published response.
const requestTTL = 86400 * time.Second

// methodSpec carries the relay tags of one protocol method. The req/res
// integers are the paired relay's contract; a deployment pairing with a
// different relay edits this table only.
type methodSpec struct {
	ReqTag int
	ResTag int
}

var methodSpecs = map[string]methodSpec{
	MethodNotifySubscribe:            {ReqTag: 4000, ResTag: 4001},
	MethodNotifyMessage:              {ReqTag: 4002, ResTag: 4003},
	MethodNotifyDelete:               {ReqTag: 4004, ResTag: 4005},
	MethodNotifyUpdate:               {ReqTag: 4008, ResTag: 4009},
	MethodNotifyWatchSubscriptions:   {ReqTag: 4010, ResTag: 4011},
	MethodNotifySubscriptionsChanged: {ReqTag: 4012, ResTag: 4013},
}

// Wire payload bodies. Every protocol frame carries a single JWT
// authorization envelope under a method-specific key.

type subscribePayload struct {
	SubscriptionAuth string `json:"subscriptionAuth"`
}

type updatePayload struct {
	UpdateAuth string `json:"updateAuth"`
}

type deletePayload struct {
	DeleteAuth string `json:"deleteAuth"`
}

type messagePayload struct {
	MessageAuth string `json:"messageAuth"`
}

type responsePayload struct {
	ResponseAuth string `json:"responseAuth"`
}

type watchPayload struct {
	WatchSubscriptionsAuth string `json:"watchSubscriptionsAuth"`
}

type subscriptionsChangedPayload struct {
	SubscriptionsChangedAuth string `json:"subscriptionsChangedAuth"`
}

// newRequestID returns a random positive 63-bit JSON-RPC id.
func newRequestID() (uint64, error) {
	var raw [8]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	id := binary.BigEndian.Uint64(raw[:]) >> 1
	if id == 0 {
		id = 1
	}
	return id, nil
}

// Expirer target namespace for ledger entries.
const requestTargetPrefix = "req/"

func requestTarget(id uint64) string {
	return requestTargetPrefix + strconv.FormatUint(id, 10)
}

func requestIDFromTarget(target string) (uint64, bool) {
	raw, ok := strings.CutPrefix(target, requestTargetPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
