package core

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/JonMunkholm/lexconv/internal/lexicon"
	"github.com/JonMunkholm/lexconv/internal/lift"
)

// FormatInfo describes an output format to the UI and CLI.
type FormatInfo struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Extension   string `json:"extension"`
	ContentType string `json:"content_type"`
	Order       int    `json:"-"`
}

// Job is everything a format needs to render one session.
type Job struct {
	Session  lexicon.Session
	BaseName string
	LIFT     *lift.Writer
}

// FormatDefinition is a registered output format.
type FormatDefinition struct {
	Info FormatInfo

	// Render writes the artifact body.
	Render func(w io.Writer, job Job) error

	// FileName overrides the default base name + extension.
	FileName func(base string) string
}

// OutputName returns the download file name for base.
func (d FormatDefinition) OutputName(base string) string {
	if d.FileName != nil {
		return d.FileName(base)
	}
	return base + d.Info.Extension
}

var (
	registry   = make(map[string]FormatDefinition)
	registryMu sync.RWMutex
)

// Register adds a format. Panics if the key is already registered.
func Register(def FormatDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("format already registered: %s", def.Info.Key))
	}
	if def.Render == nil {
		panic(fmt.Sprintf("format %s has no renderer", def.Info.Key))
	}
	registry[def.Info.Key] = def
}

// Get returns a format by key.
func Get(key string) (FormatDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns every registered format in display order.
func All() []FormatDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]FormatDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Order != result[j].Info.Order {
			return result[i].Info.Order < result[j].Info.Order
		}
		return result[i].Info.Key < result[j].Info.Key
	})
	return result
}

// Keys returns the registered format keys in display order.
func Keys() []string {
	defs := All()
	keys := make([]string, len(defs))
	for i, d := range defs {
		keys[i] = d.Info.Key
	}
	return keys
}

// FormatCount returns the number of registered formats.
func FormatCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// unregister removes a format. Tests use it to undo Register.
func unregister(key string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, key)
}
