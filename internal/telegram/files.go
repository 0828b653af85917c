package telegram

import (
	"fmt"
	"io"
	"net/http"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// FileFetcher downloads Telegram file content into temp files so the
// external image tools can read it. It implements
// investigation.EvidenceFetcher for the case deriver.
type FileFetcher struct {
	BotAPI *tgbotapi.BotAPI
}

// Fetch resolves a Telegram file ID to a local temp file. The cleanup
// func removes the file.
func (f *FileFetcher) Fetch(fileID string) (string, func(), error) {
	url, err := f.BotAPI.GetFileDirectURL(fileID)
	if err != nil {
		return "", nil, err
	}

	resp, err := http.Get(url)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("download photo: status %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "evidence-*.jpg")
	if err != nil {
		return "", nil, err
	}
	defer tmp.Close()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		os.Remove(tmp.Name())
		return "", nil, err
	}
	path := tmp.Name()
	return path, func() { os.Remove(path) }, nil
}
