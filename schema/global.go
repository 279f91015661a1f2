/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalSchema *Schema
)

// Init installs s as the process-wide schema. It may be called once.
func Init(s *Schema) error {
	if s == nil {
		return fmt.Errorf("schema: Init with nil schema")
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalSchema != nil {
		return fmt.Errorf("schema: already initialized")
	}
	globalSchema = s
	return nil
}

// MustInit is Init for startup code; failure is fatal.
func MustInit(s *Schema) {
	if err := Init(s); err != nil {
		panic(err)
	}
}

// Global returns the process-wide schema, ok=false before Init.
func Global() (*Schema, bool) {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalSchema, globalSchema != nil
}

// resetGlobal is used by tests.
func resetGlobal() {
	globalMu.Lock()
	globalSchema = nil
	globalMu.Unlock()
}
