// Package modeldata holds the static default catalogs and pricing tables
// for each vendor. Adapters fall back to these whenever a live vendor
// catalog query fails; prices are refreshed by hand against the vendors'
// published sheets.
package modeldata

import (
	"github.com/modelmux/modelmux/internal/llm/pricing"
	"github.com/modelmux/modelmux/pkg/schema"
)

// Catalog entries store per-token USD prices regardless of the vendor's
// own sheet denomination; the pricing tables keep the vendor convention.

var OpenAIModels = []schema.CatalogEntry{
	{ID: "gpt-4o", Name: "GPT-4o", Description: "OpenAI's fastest flagship multimodal model.", ContextLength: 128000, InputPrice: 0.000005, OutputPrice: 0.000015},
	{ID: "gpt-4o-mini", Name: "GPT-4o mini", Description: "Small, cost-efficient multimodal model.", ContextLength: 128000, InputPrice: 0.00000015, OutputPrice: 0.0000006},
	{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Description: "GPT-4 with improved instruction following and JSON mode.", ContextLength: 128000, InputPrice: 0.00001, OutputPrice: 0.00003},
	{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Description: "Cost-effective general purpose chat model.", ContextLength: 16385, InputPrice: 0.0000005, OutputPrice: 0.0000015},
	{ID: "text-embedding-3-small", Name: "Text Embedding 3 Small", Description: "Compact embedding model.", ContextLength: 8191, InputPrice: 0.00000002},
	{ID: "text-embedding-3-large", Name: "Text Embedding 3 Large", Description: "High-accuracy embedding model.", ContextLength: 8191, InputPrice: 0.00000013},
}

func OpenAIPricing() *pricing.Table {
	return &pricing.Table{
		Vendor: "openai",
		Unit:   pricing.Per1K,
		Prices: map[string]pricing.Price{
			"gpt-4o":                 {Input: 0.005, Output: 0.015},
			"gpt-4o-mini":            {Input: 0.00015, Output: 0.0006},
			"gpt-4-turbo":            {Input: 0.01, Output: 0.03},
			"gpt-4":                  {Input: 0.03, Output: 0.06},
			"gpt-3.5-turbo":          {Input: 0.0005, Output: 0.0015},
			"text-embedding-3-small": {Input: 0.00002},
			"text-embedding-3-large": {Input: 0.00013},
		},
		Default: pricing.Price{Input: 0.005, Output: 0.015},
	}
}

var AnthropicModels = []schema.CatalogEntry{
	{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", Description: "Most capable Claude 3 model.", ContextLength: 200000, InputPrice: 0.000015, OutputPrice: 0.000075},
	{ID: "claude-3-5-sonnet-20240620", Name: "Claude 3.5 Sonnet", Description: "Balanced intelligence and speed.", ContextLength: 200000, InputPrice: 0.000003, OutputPrice: 0.000015},
	{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", Description: "Fastest, most compact Claude 3 model.", ContextLength: 200000, InputPrice: 0.00000025, OutputPrice: 0.00000125},
}

func AnthropicPricing() *pricing.Table {
	return &pricing.Table{
		Vendor: "anthropic",
		Unit:   pricing.Per1K,
		Prices: map[string]pricing.Price{
			"claude-3-opus":     {Input: 0.015, Output: 0.075},
			"claude-3-5-sonnet": {Input: 0.003, Output: 0.015},
			"claude-3-sonnet":   {Input: 0.003, Output: 0.015},
			"claude-3-haiku":    {Input: 0.00025, Output: 0.00125},
		},
		Default: pricing.Price{Input: 0.003, Output: 0.015},
	}
}

var GoogleModels = []schema.CatalogEntry{
	{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Description: "Long-context multimodal reasoning model.", ContextLength: 2097152, InputPrice: 0.0000035, OutputPrice: 0.0000105},
	{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", Description: "Fast, low-cost multimodal model.", ContextLength: 1048576, InputPrice: 0.00000035, OutputPrice: 0.00000105},
	{ID: "text-embedding-004", Name: "Text Embedding 004", Description: "Gemini embedding model.", ContextLength: 2048, InputPrice: 0.0000001},
}

// Google publishes per-token prices, so the table keeps that unit.
func GooglePricing() *pricing.Table {
	return &pricing.Table{
		Vendor: "google",
		Unit:   pricing.PerToken,
		Prices: map[string]pricing.Price{
			"gemini-1.5-pro":     {Input: 0.0000035, Output: 0.0000105},
			"gemini-1.5-flash":   {Input: 0.00000035, Output: 0.00000105},
			"text-embedding-004": {Input: 0.0000001},
		},
		Default: pricing.Price{Input: 0.0000035, Output: 0.0000105},
	}
}

var MistralModels = []schema.CatalogEntry{
	{ID: "mistral-large-latest", Name: "Mistral Large", Description: "Flagship reasoning model.", ContextLength: 128000, InputPrice: 0.000002, OutputPrice: 0.000006},
	{ID: "mistral-small-latest", Name: "Mistral Small", Description: "Cost-efficient general model.", ContextLength: 32000, InputPrice: 0.000001, OutputPrice: 0.000003},
	{ID: "open-mistral-nemo", Name: "Mistral NeMo", Description: "Open-weights 12B model.", ContextLength: 128000, InputPrice: 0.0000003, OutputPrice: 0.0000003},
	{ID: "mistral-embed", Name: "Mistral Embed", Description: "Embedding model.", ContextLength: 8000, InputPrice: 0.0000001},
}

func MistralPricing() *pricing.Table {
	return &pricing.Table{
		Vendor: "mistral",
		Unit:   pricing.Per1K,
		Prices: map[string]pricing.Price{
			"mistral-large":     {Input: 0.002, Output: 0.006},
			"mistral-small":     {Input: 0.001, Output: 0.003},
			"open-mistral-nemo": {Input: 0.0003, Output: 0.0003},
			"mistral-embed":     {Input: 0.0001},
		},
		Default: pricing.Price{Input: 0.002, Output: 0.006},
	}
}

var DeepSeekModels = []schema.CatalogEntry{
	{ID: "deepseek-chat", Name: "DeepSeek Chat", Description: "General chat model (DeepSeek-V3).", ContextLength: 64000, InputPrice: 0.00000014, OutputPrice: 0.00000028},
	{ID: "deepseek-reasoner", Name: "DeepSeek Reasoner", Description: "Reasoning model (DeepSeek-R1).", ContextLength: 64000, InputPrice: 0.00000055, OutputPrice: 0.00000219},
}

func DeepSeekPricing() *pricing.Table {
	return &pricing.Table{
		Vendor: "deepseek",
		Unit:   pricing.Per1K,
		Prices: map[string]pricing.Price{
			"deepseek-chat":     {Input: 0.00014, Output: 0.00028},
			"deepseek-reasoner": {Input: 0.00055, Output: 0.00219},
		},
		Default: pricing.Price{Input: 0.00014, Output: 0.00028},
	}
}

var QwenModels = []schema.CatalogEntry{
	{ID: "qwen-max", Name: "Qwen Max", Description: "Most capable Qwen model.", ContextLength: 32768, InputPrice: 0.0000024, OutputPrice: 0.0000096},
	{ID: "qwen-plus", Name: "Qwen Plus", Description: "Balanced Qwen model.", ContextLength: 131072, InputPrice: 0.0000008, OutputPrice: 0.000002},
	{ID: "qwen-turbo", Name: "Qwen Turbo", Description: "Fast, low-cost Qwen model.", ContextLength: 1008192, InputPrice: 0.0000003, OutputPrice: 0.0000006},
	{ID: "text-embedding-v2", Name: "Text Embedding v2", Description: "DashScope embedding model.", ContextLength: 2048, InputPrice: 0.0000001},
}

func QwenPricing() *pricing.Table {
	return &pricing.Table{
		Vendor: "qwen",
		Unit:   pricing.Per1K,
		Prices: map[string]pricing.Price{
			"qwen-max":          {Input: 0.0024, Output: 0.0096},
			"qwen-plus":         {Input: 0.0008, Output: 0.002},
			"qwen-turbo":        {Input: 0.0003, Output: 0.0006},
			"text-embedding-v2": {Input: 0.0001},
		},
		Default: pricing.Price{Input: 0.0008, Output: 0.002},
	}
}
