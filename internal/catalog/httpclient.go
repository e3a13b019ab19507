package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// HTTPClient is a minimal Client backed by the upstream catalog's
// JSON/HTTP API. It only implements the read/report surface this
// server needs; login and token refresh happen elsewhere and the
// resulting access token is handed to NewHTTPClient.
type HTTPClient struct {
	baseURL     string
	accessToken string
	userID      string
	httpClient  *http.Client
}

func NewHTTPClient(baseURL, accessToken, userID string) *HTTPClient {
	return &HTTPClient{
		baseURL:     baseURL,
		accessToken: accessToken,
		userID:      userID,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, query url.Values) (*http.Request, error) {
	u := c.baseURL + path
	if query != nil {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Emby-Token", c.accessToken)
	return req, nil
}

type itemsResponse struct {
	Items            []wireItem `json:"Items"`
	TotalRecordCount int        `json:"TotalRecordCount"`
}

type wireMediaStream struct {
	Type           string `json:"Type"`
	Codec          string `json:"Codec"`
	Width          int    `json:"Width"`
	Height         int    `json:"Height"`
	Language       string `json:"Language"`
	Channels       int    `json:"Channels"`
	SampleRate     int    `json:"SampleRate"`
	Index          int    `json:"Index"`
	IsExternal     bool   `json:"IsExternal"`
}

type wireMediaSource struct {
	Container    string            `json:"Container"`
	Size         int64             `json:"Size"`
	Bitrate      int               `json:"Bitrate"`
	RunTimeTicks int64             `json:"RunTimeTicks"`
	MediaStreams []wireMediaStream `json:"MediaStreams"`
}

type wireItem struct {
	Id                string            `json:"Id"`
	Name              string            `json:"Name"`
	Type              string            `json:"Type"`
	CollectionType    string            `json:"CollectionType"`
	ParentId          string            `json:"ParentId"`
	ChildCount        *int              `json:"ChildCount"`
	RunTimeTicks      *int64            `json:"RunTimeTicks"`
	IndexNumber       *int              `json:"IndexNumber"`
	ParentIndexNumber *int              `json:"ParentIndexNumber"`
	ProductionYear    *int              `json:"ProductionYear"`
	Overview          string            `json:"Overview"`
	Genres            []string          `json:"Genres"`
	SeriesName        string            `json:"SeriesName"`
	Album             string            `json:"Album"`
	Artists           []string          `json:"Artists"`
	MediaSources      []wireMediaSource `json:"MediaSources"`
}

func (w wireItem) toCatalogItem() CatalogItem {
	sources := make([]MediaSource, 0, len(w.MediaSources))
	for _, ms := range w.MediaSources {
		streams := make([]MediaStream, 0, len(ms.MediaStreams))
		for _, s := range ms.MediaStreams {
			streams = append(streams, MediaStream{
				Type:       StreamType(s.Type),
				Codec:      s.Codec,
				Width:      s.Width,
				Height:     s.Height,
				Language:   s.Language,
				Channels:   s.Channels,
				SampleRate: s.SampleRate,
				Index:      s.Index,
				IsExternal: s.IsExternal,
			})
		}
		sources = append(sources, MediaSource{
			Container:    ms.Container,
			Size:         ms.Size,
			Bitrate:      ms.Bitrate,
			RunTimeTicks: ms.RunTimeTicks,
			MediaStreams: streams,
		})
	}

	return CatalogItem{
		ID:                w.Id,
		Name:              w.Name,
		Type:              ItemType(w.Type),
		CollectionType:    CollectionType(w.CollectionType),
		ParentID:          w.ParentId,
		ChildCount:        w.ChildCount,
		RunTimeTicks:      w.RunTimeTicks,
		IndexNumber:       w.IndexNumber,
		ParentIndexNumber: w.ParentIndexNumber,
		ProductionYear:    w.ProductionYear,
		Overview:          w.Overview,
		Genres:            w.Genres,
		SeriesName:        w.SeriesName,
		Album:             w.Album,
		Artists:           w.Artists,
		MediaSources:      sources,
	}
}

func (c *HTTPClient) ListLibraries(ctx context.Context) ([]CatalogItem, error) {
	q := url.Values{"UserId": {c.userID}}
	req, err := c.newRequest(ctx, http.MethodGet, "/Library/VirtualFolders", q)
	if err != nil {
		return nil, err
	}
	var items []wireItem
	if err := c.doJSON(req, &items); err != nil {
		return nil, err
	}
	result := make([]CatalogItem, 0, len(items))
	for _, it := range items {
		result = append(result, it.toCatalogItem())
	}
	return result, nil
}

func (c *HTTPClient) ListChildren(ctx context.Context, parentID string) ([]CatalogItem, error) {
	q := url.Values{
		"UserId":    {c.userID},
		"ParentId":  {parentID},
		"Recursive": {"false"},
		"Fields":    {"Overview,Genres,MediaSources"},
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/Items", q)
	if err != nil {
		return nil, err
	}
	var resp itemsResponse
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	result := make([]CatalogItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		result = append(result, it.toCatalogItem())
	}
	return result, nil
}

func (c *HTTPClient) GetItem(ctx context.Context, id string) (*CatalogItem, error) {
	q := url.Values{"UserId": {c.userID}}
	req, err := c.newRequest(ctx, http.MethodGet, "/Items/"+id, q)
	if err != nil {
		return nil, err
	}
	var it wireItem
	if err := c.doJSON(req, &it); err != nil {
		return nil, err
	}
	item := it.toCatalogItem()
	return &item, nil
}

func (c *HTTPClient) StreamURL(ctx context.Context, id string, opts StreamOptions) (string, error) {
	q := url.Values{"api_key": {c.accessToken}}
	var path string
	if opts.DirectPlay {
		path = fmt.Sprintf("/Videos/%s/stream", id)
		q.Set("Static", "true")
	} else {
		path = fmt.Sprintf("/Videos/%s/stream.mp4", id)
		q.Set("Container", "mp4")
		q.Set("VideoCodec", "h264")
		q.Set("AudioCodec", "aac")
		q.Set("TranscodingMaxAudioChannels", "2")
		q.Set("AudioBitRate", "128000")
		if opts.StartTimeTicks > 0 {
			q.Set("StartTimeTicks", strconv.FormatInt(opts.StartTimeTicks, 10))
		}
	}
	if opts.MaxStreamingBitrate > 0 {
		q.Set("MaxStreamingBitrate", strconv.Itoa(opts.MaxStreamingBitrate))
	}
	for k, v := range opts.DeviceHints {
		q.Set(k, v)
	}
	return c.baseURL + path + "?" + q.Encode(), nil
}

func (c *HTTPClient) ImageURL(ctx context.Context, id string, imageType string) (string, error) {
	return fmt.Sprintf("%s/Items/%s/Images/%s", c.baseURL, id, imageType), nil
}

// SubtitleURLCandidates lists the subtitle delivery URL shapes this
// upstream API exposes for an embedded subtitle stream, the SRT-converted
// delivery first, falling back to the raw subtitle stream.
func (c *HTTPClient) SubtitleURLCandidates(ctx context.Context, id string, index int) ([]string, error) {
	return []string{
		fmt.Sprintf("%s/Videos/%s/%d/Subtitles/%d/Stream.srt?api_key=%s", c.baseURL, id, index, index, c.accessToken),
		fmt.Sprintf("%s/Videos/%s/Subtitles/%d?api_key=%s", c.baseURL, id, index, c.accessToken),
	}, nil
}

type wireUserData struct {
	PlaybackPositionTicks int64 `json:"PlaybackPositionTicks"`
	Played                bool  `json:"Played"`
}

func (c *HTTPClient) UserData(ctx context.Context, userID, itemID string) (*UserData, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/Users/%s/Items/%s/UserData", userID, itemID), nil)
	if err != nil {
		return nil, err
	}
	var wud wireUserData
	if err := c.doJSON(req, &wud); err != nil {
		return nil, err
	}
	return &UserData{PlaybackPositionTicks: wud.PlaybackPositionTicks, Played: wud.Played}, nil
}

func (c *HTTPClient) ReportStart(ctx context.Context, p PlaybackStart) error {
	body := map[string]any{
		"UserId":         p.UserID,
		"ItemId":         p.ItemID,
		"SessionId":      p.SessionID,
		"MediaSourceId":  p.ItemID,
		"CanSeek":        true,
		"PlayMethod":     p.PlayMethod,
		"PlaySessionId":  p.SessionID,
		"StartTimeTicks": p.StartTimeTicks,
		"PositionTicks":  p.PositionTicks,
		"EventName":      "playbackstart",
	}
	return c.postJSON(ctx, "/Sessions/Playing", body)
}

func (c *HTTPClient) ReportProgress(ctx context.Context, p PlaybackProgress) error {
	event := "timeupdate"
	if p.IsPaused {
		event = "pause"
	}
	body := map[string]any{
		"UserId":        p.UserID,
		"ItemId":        p.ItemID,
		"SessionId":     p.SessionID,
		"PlayMethod":    p.PlayMethod,
		"PlaySessionId": p.SessionID,
		"PositionTicks": p.PositionTicks,
		"IsPaused":      p.IsPaused,
		"EventName":     event,
	}
	return c.postJSON(ctx, "/Sessions/Playing/Progress", body)
}

func (c *HTTPClient) ReportStop(ctx context.Context, p PlaybackStop) error {
	body := map[string]any{
		"UserId":        p.UserID,
		"ItemId":        p.ItemID,
		"SessionId":     p.SessionID,
		"PlayMethod":    p.PlayMethod,
		"PlaySessionId": p.SessionID,
		"PositionTicks": p.PositionTicks,
		"Failed":        p.Failed,
	}
	return c.postJSON(ctx, "/Sessions/Playing/Stopped", body)
}

func (c *HTTPClient) MarkPlayed(ctx context.Context, userID, itemID string) error {
	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/Users/%s/PlayedItems/%s", userID, itemID), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mark played: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mark played: upstream status %d", resp.StatusCode)
	}
	return nil
}

var _ Client = (*HTTPClient)(nil)

func (c *HTTPClient) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("upstream status %d for %s", resp.StatusCode, req.URL.Path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body map[string]any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	enc, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode telemetry body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(enc))
	req.ContentLength = int64(len(enc))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telemetry request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry %s: upstream status %d", path, resp.StatusCode)
	}
	return nil
}
