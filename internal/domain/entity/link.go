package entity

import "time"

// LinkType classifies a resolved link and selects the event stream that
// receives it.
type LinkType string

const (
	LinkTypeDynamic LinkType = "dynamic"
	LinkTypeUnified LinkType = "unified"
)

// SocialMediaTags carries the open-graph style metadata attached to a link.
type SocialMediaTags struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// ResolvedLinkData is the outcome of resolving an incoming URL. Instances
// are handed to subscribers by value; the maps are never shared mutable
// state between the engine and its listeners.
type ResolvedLinkData struct {
	Slug            string            `json:"slug,omitempty"`
	IOSURL          string            `json:"ios_url,omitempty"`
	AndroidURL      string            `json:"android_url,omitempty"`
	WebURL          string            `json:"web_url,omitempty"`
	FallbackURL     string            `json:"fallback_url,omitempty"`
	Parameters      map[string]string `json:"parameters,omitempty"`
	SocialMediaTags *SocialMediaTags  `json:"social_media_tags,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	Type            LinkType          `json:"type"`
	IsDeferred      bool              `json:"is_deferred"`
	MatchType       string            `json:"match_type,omitempty"` // Server-reported confidence for deferred matches.
	ResolvedAt      time.Time         `json:"resolved_at"`
	RawResponse     map[string]any    `json:"raw_response,omitempty"`
}

// Clone returns a deep copy so persisted or redacted variants never alias
// the instance already handed to subscribers.
func (d ResolvedLinkData) Clone() ResolvedLinkData {
	out := d
	if d.Parameters != nil {
		out.Parameters = make(map[string]string, len(d.Parameters))
		for k, v := range d.Parameters {
			out.Parameters[k] = v
		}
	}
	if d.Metadata != nil {
		out.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	if d.SocialMediaTags != nil {
		tags := *d.SocialMediaTags
		out.SocialMediaTags = &tags
	}
	if d.RawResponse != nil {
		out.RawResponse = make(map[string]any, len(d.RawResponse))
		for k, v := range d.RawResponse {
			out.RawResponse[k] = v
		}
	}

	return out
}

// CreateLinkRequest describes a dynamic or unified link to be created.
type CreateLinkRequest struct {
	Type            LinkType          `json:"type"`
	Slug            string            `json:"slug,omitempty"`
	IOSURL          string            `json:"ios_url,omitempty"`
	AndroidURL      string            `json:"android_url,omitempty"`
	FallbackURL     string            `json:"fallback_url,omitempty"`
	Parameters      map[string]string `json:"parameters,omitempty"`
	SocialMediaTags *SocialMediaTags  `json:"social_media_tags,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// CreateLinkResult is the structured outcome returned to callers instead
// of a thrown error, matching the convenience-oriented public API.
type CreateLinkResult struct {
	Success  bool   `json:"success"`
	ShortURL string `json:"short_url,omitempty"`
	LinkID   string `json:"link_id,omitempty"`
	Error    string `json:"error,omitempty"`
}
