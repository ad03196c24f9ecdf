package match

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/RedDot15/BE-Xiangqi/internal/config"
	apperrors "github.com/RedDot15/BE-Xiangqi/internal/errors"
	"github.com/RedDot15/BE-Xiangqi/internal/game"
	"github.com/RedDot15/BE-Xiangqi/internal/models"
)

// Oracle 向AI引擎求一步棋
type Oracle interface {
	RequestMove(ctx context.Context, board *game.Board, aiMode string) (from, to game.Position, err error)
}

// HTTPOracle 调用外部引擎服务的HTTP实现。
// AI_EASY 走自研引擎，AI_HARD 走 Pikafish 桥。
type HTTPOracle struct {
	easyURL string
	hardURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPOracle(cfg config.AIConfig, logger *zap.Logger) *HTTPOracle {
	return &HTTPOracle{
		easyURL: cfg.EasyURL,
		hardURL: cfg.HardURL,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger,
	}
}

type aiMoveRequest struct {
	Board [][]string `json:"board"`
}

type aiMoveResponse struct {
	FromRow int `json:"from_row"`
	FromCol int `json:"from_col"`
	ToRow   int `json:"to_row"`
	ToCol   int `json:"to_col"`
}

func (o *HTTPOracle) RequestMove(ctx context.Context, board *game.Board, aiMode string) (game.Position, game.Position, error) {
	url := o.easyURL
	if aiMode == models.RoleAIHard {
		url = o.hardURL
	}

	cells := make([][]string, game.Rows)
	for r := 0; r < game.Rows; r++ {
		cells[r] = make([]string, game.Cols)
		copy(cells[r], board[r][:])
	}
	body, err := json.Marshal(aiMoveRequest{Board: cells})
	if err != nil {
		return game.Position{}, game.Position{}, apperrors.Wrap(err, apperrors.ErrInternal, "序列化AI请求失败")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return game.Position{}, game.Position{}, apperrors.Wrap(err, apperrors.ErrInternal, "构造AI请求失败")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return game.Position{}, game.Position{}, apperrors.Wrap(err, apperrors.ErrStoreUnavailable, "AI引擎不可达")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return game.Position{}, game.Position{},
			apperrors.Newf(apperrors.ErrInternal, "AI引擎返回状态码 %d", resp.StatusCode)
	}

	var mv aiMoveResponse
	if err := json.NewDecoder(resp.Body).Decode(&mv); err != nil {
		return game.Position{}, game.Position{}, apperrors.Wrap(err, apperrors.ErrInternal, "解析AI响应失败")
	}

	from := game.Position{Row: mv.FromRow, Col: mv.FromCol}
	to := game.Position{Row: mv.ToRow, Col: mv.ToCol}
	o.logger.Debug("AI引擎返回走法",
		zap.String("mode", aiMode),
		zap.String("move", fmt.Sprintf("(%d,%d)->(%d,%d)", from.Row, from.Col, to.Row, to.Col)),
		zap.Duration("elapsed", time.Since(start)))
	return from, to, nil
}
