package domain

// TorrentDescriptor is one torrent candidate returned by a search provider.
type TorrentDescriptor struct {
	Name      string `json:"name"`
	Seeders   int    `json:"seeders"`
	Leechers  int    `json:"leechers"`
	SizeBytes int64  `json:"size"`
	InfoHash  string `json:"info_hash"`
	Quality   string `json:"quality,omitempty"`
	Language  string `json:"language,omitempty"`
	Magnet    string `json:"magnet,omitempty"`
}

// ProviderResult is one provider's slot in the aggregate search response.
// Exactly one ProviderResult exists per configured provider; a provider
// failure fills Err and leaves Torrents empty, never removing the slot.
type ProviderResult struct {
	Provider string
	Torrents []TorrentDescriptor
	Err      string
}

// Failed reports whether this provider's call ended in an error.
func (r ProviderResult) Failed() bool {
	return r.Err != ""
}

// Payload returns the wire shape of this slot: the descriptor list on
// success, or a one-element list holding an error descriptor on failure.
func (r ProviderResult) Payload() any {
	if r.Failed() {
		return []map[string]string{{"error": r.Err}}
	}
	if r.Torrents == nil {
		return []TorrentDescriptor{}
	}
	return r.Torrents
}
