package registry

import (
	"fmt"
	"sort"
)

// ChatTemplate holds the per-role transcript markers for a chat model family.
// System and user turns share the human marker; assistant turns use the bot
// marker.
type ChatTemplate struct {
	Human string
	Bot   string
}

// ChatModel describes a known text-generation model.
type ChatModel struct {
	Name     string
	Family   string
	Template ChatTemplate
}

// EmbeddingModel describes a known sentence-embedding model and its output width.
type EmbeddingModel struct {
	Name string
	Dim  int
}

// VideoModel describes a known text-to-video model and its synthesis defaults.
type VideoModel struct {
	Name          string
	DefaultSteps  int
	DefaultFrames int
	DefaultFPS    int
}

var chatModels = map[string]ChatModel{
	"sambanovasystems/BLOOMChat-176B-v1": {
		Name:     "sambanovasystems/BLOOMChat-176B-v1",
		Family:   "bloom",
		Template: ChatTemplate{Human: "<human>: ", Bot: "<bot>: "},
	},
	"bigscience/bloomz-7b1": {
		Name:     "bigscience/bloomz-7b1",
		Family:   "bloom",
		Template: ChatTemplate{Human: "<human>: ", Bot: "<bot>: "},
	},
	"togethercomputer/RedPajama-INCITE-Chat-3B-v1": {
		Name:     "togethercomputer/RedPajama-INCITE-Chat-3B-v1",
		Family:   "gptneox",
		Template: ChatTemplate{Human: "<human>: ", Bot: "<bot>: "},
	},
}

var embeddingModels = map[string]EmbeddingModel{
	"bert-base-cased":                         {Name: "bert-base-cased", Dim: 768},
	"bert-base-uncased":                       {Name: "bert-base-uncased", Dim: 768},
	"sentence-transformers/all-MiniLM-L6-v2":  {Name: "sentence-transformers/all-MiniLM-L6-v2", Dim: 384},
	"sentence-transformers/all-mpnet-base-v2": {Name: "sentence-transformers/all-mpnet-base-v2", Dim: 768},
}

var videoModels = map[string]VideoModel{
	"damo-vilab/text-to-video-ms-1.7b": {
		Name:          "damo-vilab/text-to-video-ms-1.7b",
		DefaultSteps:  25,
		DefaultFrames: 16,
		DefaultFPS:    8,
	},
	"cerspense/zeroscope_v2_576w": {
		Name:          "cerspense/zeroscope_v2_576w",
		DefaultSteps:  30,
		DefaultFrames: 24,
		DefaultFPS:    8,
	},
}

// ChatByName resolves a chat model from the catalog.
func ChatByName(name string) (ChatModel, error) {
	m, ok := chatModels[name]
	if !ok {
		return ChatModel{}, fmt.Errorf("unknown chat model %q (choices: %v)", name, ChatNames())
	}
	return m, nil
}

// EmbeddingByName resolves an embedding model from the catalog.
func EmbeddingByName(name string) (EmbeddingModel, error) {
	m, ok := embeddingModels[name]
	if !ok {
		return EmbeddingModel{}, fmt.Errorf("unknown embedding model %q (choices: %v)", name, EmbeddingNames())
	}
	return m, nil
}

// VideoByName resolves a text-to-video model from the catalog.
func VideoByName(name string) (VideoModel, error) {
	m, ok := videoModels[name]
	if !ok {
		return VideoModel{}, fmt.Errorf("unknown video model %q (choices: %v)", name, VideoNames())
	}
	return m, nil
}

// ChatNames returns the catalog's chat model names, sorted.
func ChatNames() []string { return sortedKeys(chatModels) }

// EmbeddingNames returns the catalog's embedding model names, sorted.
func EmbeddingNames() []string { return sortedKeys(embeddingModels) }

// VideoNames returns the catalog's video model names, sorted.
func VideoNames() []string { return sortedKeys(videoModels) }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
