package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"lms/config"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Errors returned by the YouTube client, checked with errors.Is by callers
var (
	ErrMissingApiKey = errors.New("youtube API key is not configured")
	ErrQuotaExceeded = errors.New("youtube API quota exceeded")
	ErrVideoNotFound = errors.New("video not found")
)

var (
	// Matches both the long watch form and the short share form
	videoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\s]+)`)
	// Matches the list query parameter anywhere in the URL
	playlistIDPattern = regexp.MustCompile(`[?&]list=([^&]+)`)
)

// ExtractVideoID pulls the video ID out of a user-submitted YouTube URL
func ExtractVideoID(rawURL string) (string, error) {
	matches := videoIDPattern.FindStringSubmatch(rawURL)
	if len(matches) < 2 || matches[1] == "" {
		return "", fmt.Errorf("invalid YouTube URL: %s", rawURL)
	}
	return matches[1], nil
}

// ExtractPlaylistID pulls the playlist ID out of a user-submitted playlist URL
func ExtractPlaylistID(rawURL string) (string, error) {
	matches := playlistIDPattern.FindStringSubmatch(rawURL)
	if len(matches) < 2 || matches[1] == "" {
		return "", fmt.Errorf("invalid playlist URL: %s", rawURL)
	}
	return matches[1], nil
}

// WatchURL rebuilds the canonical playback URL for a video ID
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// PlaylistVideo is one raw playlist member as returned by the API.
// VideoID or Title may be empty (deleted/private videos); callers filter.
type PlaylistVideo struct {
	VideoID string
	Title   string
}

// YoutubeClient wraps the YouTube Data API v3
type YoutubeClient struct {
	client  *resty.Client
	apiKey  string
	baseURL string
}

// NewYoutubeClient builds a client from AppConfig. Fails before any network
// call when the API key is missing.
func NewYoutubeClient() (*YoutubeClient, error) {
	if config.AppConfig.YoutubeApiKey == "" {
		return nil, ErrMissingApiKey
	}

	client := resty.New().SetTimeout(15 * time.Second)

	return &YoutubeClient{
		client:  client,
		apiKey:  config.AppConfig.YoutubeApiKey,
		baseURL: strings.TrimRight(config.AppConfig.YoutubeApiUrl, "/"),
	}, nil
}

// GetVideoTitle fetches the title of a single video from the videos endpoint
func (y *YoutubeClient) GetVideoTitle(videoID string) (string, error) {
	resp, err := y.client.R().
		SetQueryParams(map[string]string{
			"part": "snippet",
			"id":   videoID,
			"key":  y.apiKey,
		}).
		Get(y.baseURL + "/videos")
	if err != nil {
		return "", fmt.Errorf("failed to fetch video details: %v", err)
	}

	if err := apiError(resp); err != nil {
		return "", err
	}

	var videoResp struct {
		Items []struct {
			Snippet struct {
				Title string `json:"title"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.Unmarshal(resp.Body(), &videoResp); err != nil {
		return "", fmt.Errorf("failed to parse video response: %v", err)
	}

	if len(videoResp.Items) == 0 {
		return "", ErrVideoNotFound
	}

	title := videoResp.Items[0].Snippet.Title
	if title == "" {
		title = "Untitled Video"
	}

	return title, nil
}

// FetchPlaylistItems retrieves every member of a playlist, following the
// nextPageToken cursor until the API stops returning one. Pages are capped at
// 50 items by the API, so large playlists take multiple round trips.
func (y *YoutubeClient) FetchPlaylistItems(playlistID string) ([]PlaylistVideo, error) {
	var videos []PlaylistVideo
	pageToken := ""

	for {
		params := map[string]string{
			"part":       "snippet",
			"playlistId": playlistID,
			"maxResults": "50",
			"key":        y.apiKey,
		}
		if pageToken != "" {
			params["pageToken"] = pageToken
		}

		resp, err := y.client.R().
			SetQueryParams(params).
			Get(y.baseURL + "/playlistItems")
		if err != nil {
			return videos, fmt.Errorf("failed to fetch playlist items: %v", err)
		}

		if err := apiError(resp); err != nil {
			return videos, err
		}

		var pageResp struct {
			Items []struct {
				Snippet struct {
					Title      string `json:"title"`
					ResourceID struct {
						VideoID string `json:"videoId"`
					} `json:"resourceId"`
				} `json:"snippet"`
			} `json:"items"`
			NextPageToken string `json:"nextPageToken"`
		}
		if err := json.Unmarshal(resp.Body(), &pageResp); err != nil {
			return videos, fmt.Errorf("failed to parse playlist response: %v", err)
		}

		for _, item := range pageResp.Items {
			videos = append(videos, PlaylistVideo{
				VideoID: item.Snippet.ResourceID.VideoID,
				Title:   item.Snippet.Title,
			})
		}

		if pageResp.NextPageToken == "" {
			break
		}
		pageToken = pageResp.NextPageToken
	}

	return videos, nil
}

// apiError maps a non-200 response to a typed error. Quota exhaustion is
// reported separately so the admin UI can tell the caller to retry later.
func apiError(resp *resty.Response) error {
	if resp.StatusCode() == 200 {
		return nil
	}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Errors  []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"error"`
	}
	_ = json.Unmarshal(resp.Body(), &errResp)

	for _, e := range errResp.Error.Errors {
		if e.Reason == "quotaExceeded" || e.Reason == "rateLimitExceeded" {
			return ErrQuotaExceeded
		}
	}
	if strings.Contains(errResp.Error.Message, "quota") {
		return ErrQuotaExceeded
	}

	if errResp.Error.Message != "" {
		return fmt.Errorf("youtube API error (status %d): %s", resp.StatusCode(), errResp.Error.Message)
	}
	return fmt.Errorf("youtube API error: status %d", resp.StatusCode())
}
