package router

import "github.com/xpanvictor/intervox/pkg/assistant"

type AdapterPack struct {
	Adapter assistant.Assistant
	Name    string
}

// Mux tries its adapters in order until one answers.
type Mux struct {
	RouterPolicy RoutePolicy
	Adapters     []AdapterPack
}

// RoutePolicy orders the adapters for an input.
type RoutePolicy interface {
	Select(input assistant.AssistantInput, packs []AdapterPack) []AdapterPack
}
