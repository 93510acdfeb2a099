package orders

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nft-indexer/internal/indexer/model"
	"nft-indexer/internal/indexer/repository"
	"nft-indexer/pkg/evmclient"
	"nft-indexer/pkg/utils"
)

// 校验失败原因，调用方按errors.Is分流到对应的fillability状态
var (
	ErrUnknownFormat       = errors.New("unknown-format")
	ErrInvalidTarget       = errors.New("invalid-target")
	ErrCancelled           = errors.New("cancelled")
	ErrFilled              = errors.New("filled")
	ErrExpired             = errors.New("expired")
	ErrNoBalance           = errors.New("no-balance")
	ErrNoApproval          = errors.New("no-approval")
	ErrNoBalanceNoApproval = errors.New("no-balance-no-approval")
)

// 各协议托管转移权限的operator合约
var operatorByKind = map[string]map[model.TokenKind]string{
	"seaport": {
		model.TokenKindERC721:  "0x1e0049783f008a0085193e00003d00cd54003c71",
		model.TokenKindERC1155: "0x1e0049783f008a0085193e00003d00cd54003c71",
	},
	"looks-rare": {
		model.TokenKindERC721:  "0xf42aa99f011a1fa7cda90e5e98b277e306bca83e",
		model.TokenKindERC1155: "0xfed24ec7e22f573c2e08aef55aa6797ca2b3a051",
	},
	"zora": {
		model.TokenKindERC721: "0x909e9efe4d87d1a6018c2065ae642b6d0447bc91",
	},
}

// 买单报价币的划扣方与NFT的operator不是同一合约：
// seaport经conduit，looks-rare由交易所本体transferFrom，zora走ERC20转账助手
var erc20SpenderByKind = map[string]string{
	"seaport":    "0x1e0049783f008a0085193e00003d00cd54003c71",
	"looks-rare": "0x59728544b08ab483533076417fbbb2fd0b17ce3a",
	"zora":       "0xcca379fdf4beda63c4bb0e2a3179ae62c8716794",
}

// CheckOptions 校验行为开关
type CheckOptions struct {
	// OnChainApprovalRecheck isApprovedForAll为否时再查单token授权(仅ERC721)
	OnChainApprovalRecheck bool
	// SkipFilledOrCancelled 重算余额时跳过终态检查（状态机已在别处推进）
	SkipFilledOrCancelled bool
}

// Checker 订单链下有效性校验。
// 检查顺序固定：格式 -> 目标合约 -> 终态 -> nonce -> 过期 -> 余额/授权，
// 前序失败立刻短路，错误语义越靠前越"硬"
type Checker struct {
	repo     repository.Repository
	logger   *zap.Logger
	memCache *gocache.Cache
}

func NewChecker(repo repository.Repository, logger *zap.Logger) *Checker {
	return &Checker{
		repo:     repo,
		logger:   logger,
		memCache: gocache.New(10*time.Minute, 5*time.Minute),
	}
}

func (c *Checker) Check(ctx context.Context, order *model.Order, opts CheckOptions) error {
	if order.ID == "" || order.Maker == "" || order.Contract == "" {
		return ErrUnknownFormat
	}

	tokenKind, err := c.contractKind(ctx, order.Contract)
	if err != nil {
		return err
	}
	if tokenKind == "" {
		return ErrInvalidTarget
	}

	if !opts.SkipFilledOrCancelled {
		if err := c.checkFilledOrCancelled(ctx, order); err != nil {
			return err
		}
	}

	if err := c.checkNonce(ctx, order); err != nil {
		return err
	}

	if order.ValidUntil > 0 && order.ValidUntil < time.Now().Unix() {
		return ErrExpired
	}

	return c.checkBalanceAndApproval(ctx, order, tokenKind, opts)
}

// StatusForError 校验错误到fillability状态的映射
func StatusForError(err error) model.FillabilityStatus {
	switch {
	case err == nil:
		return model.StatusFillable
	case errors.Is(err, ErrCancelled):
		return model.StatusCancelled
	case errors.Is(err, ErrFilled):
		return model.StatusFilled
	case errors.Is(err, ErrExpired):
		return model.StatusExpired
	default:
		return model.StatusNoBalance
	}
}

// contractKind 查合约token标准：内存 -> redis -> contracts表。
// 空串表示未登记，按invalid-target处理
func (c *Checker) contractKind(ctx context.Context, contract string) (model.TokenKind, error) {
	contract = strings.ToLower(contract)
	if v, found := c.memCache.Get("kind:" + contract); found {
		return v.(model.TokenKind), nil
	}

	key := utils.ContractKindKey(contract)
	if kind, err := c.repo.GetRDB().Get(ctx, key).Result(); err == nil {
		tk := model.TokenKind(kind)
		c.memCache.SetDefault("kind:"+contract, tk)
		return tk, nil
	} else if err != redis.Nil {
		c.logger.Warn("failed to read contract kind cache", zap.Error(err))
	}

	var row model.Contract
	err := c.repo.GetDB().WithContext(ctx).
		Where("address = ?", contract).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	tk := model.TokenKind(row.Kind)
	c.memCache.SetDefault("kind:"+contract, tk)
	if err := c.repo.GetRDB().Set(ctx, key, row.Kind, 24*time.Hour).Err(); err != nil {
		c.logger.Warn("failed to cache contract kind", zap.Error(err))
	}
	return tk, nil
}

func (c *Checker) checkFilledOrCancelled(ctx context.Context, order *model.Order) error {
	var row model.Order
	err := c.repo.GetDB().WithContext(ctx).
		Select("fillability_status", "quantity_remaining").
		Where("id = ?", order.ID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	switch model.FillabilityStatus(row.FillabilityStatus) {
	case model.StatusCancelled:
		return ErrCancelled
	case model.StatusFilled:
		return ErrFilled
	}
	if remaining, ok := new(big.Int).SetString(row.QuantityRemaining, 10); ok && remaining.Sign() == 0 {
		// 剩余量归零等价于已成交
		return ErrFilled
	}
	return nil
}

// checkNonce maker批量取消后，nonce低于最小值的订单视作已取消
func (c *Checker) checkNonce(ctx context.Context, order *model.Order) error {
	if order.Nonce == "" {
		return nil
	}
	nonce, ok := new(big.Int).SetString(order.Nonce, 10)
	if !ok {
		return ErrUnknownFormat
	}

	minNonce, err := c.minNonce(ctx, order.Kind, order.Maker)
	if err != nil {
		return err
	}
	if minNonce != nil && nonce.Cmp(minNonce) < 0 {
		return ErrCancelled
	}
	return nil
}

func (c *Checker) minNonce(ctx context.Context, orderKind, maker string) (*big.Int, error) {
	maker = strings.ToLower(maker)
	key := utils.MinNonceKey(orderKind, maker)
	if raw, err := c.repo.GetRDB().Get(ctx, key).Result(); err == nil {
		if v, ok := new(big.Int).SetString(raw, 10); ok {
			return v, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("failed to read min nonce cache", zap.Error(err))
	}

	var row model.BulkCancelEventRow
	err := c.repo.GetDB().WithContext(ctx).
		Where("order_kind = ? AND maker = ?", orderKind, maker).
		Order("min_nonce::numeric DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	v, ok := new(big.Int).SetString(row.MinNonce, 10)
	if !ok {
		return nil, nil
	}
	if err := c.repo.GetRDB().Set(ctx, key, row.MinNonce, time.Hour).Err(); err != nil {
		c.logger.Warn("failed to cache min nonce", zap.Error(err))
	}
	return v, nil
}

func (c *Checker) checkBalanceAndApproval(ctx context.Context, order *model.Order, tokenKind model.TokenKind, opts CheckOptions) error {
	if order.Side == string(model.OrderSideBuy) {
		return c.checkBuySide(ctx, order)
	}
	return c.checkSellSide(ctx, order, tokenKind, opts)
}

// checkBuySide 买单：maker必须持有足额报价币并授权给operator
func (c *Checker) checkBuySide(ctx context.Context, order *model.Order) error {
	client := c.repo.GetEthClient()
	maker := common.HexToAddress(order.Maker)
	currency := common.HexToAddress(order.Currency)
	price, ok := new(big.Int).SetString(order.Price, 10)
	if !ok {
		return ErrUnknownFormat
	}

	spenderHex, ok := erc20SpenderByKind[order.Kind]
	if !ok {
		return ErrUnknownFormat
	}
	spender := common.HexToAddress(spenderHex)

	balance, err := evmclient.Erc20BalanceOf(ctx, client, currency, maker)
	if err != nil {
		return err
	}
	allowance, err := evmclient.Erc20Allowance(ctx, client, currency, maker, spender)
	if err != nil {
		return err
	}

	hasBalance := balance.Cmp(price) >= 0
	hasApproval := allowance.Cmp(price) >= 0
	return combine(hasBalance, hasApproval)
}

// checkSellSide 卖单：maker必须持有NFT并授权给operator
func (c *Checker) checkSellSide(ctx context.Context, order *model.Order, tokenKind model.TokenKind, opts CheckOptions) error {
	client := c.repo.GetEthClient()
	maker := common.HexToAddress(order.Maker)
	contract := common.HexToAddress(order.Contract)
	tokenID, ok := new(big.Int).SetString(order.TokenID, 10)
	if !ok {
		return ErrUnknownFormat
	}

	operator := operatorFor(order.Kind, tokenKind)
	if operator == (common.Address{}) {
		return ErrUnknownFormat
	}

	var hasBalance bool
	switch tokenKind {
	case model.TokenKindERC721:
		owner, err := evmclient.Erc721OwnerOf(ctx, client, contract, tokenID)
		if err != nil {
			return err
		}
		hasBalance = owner == maker
	case model.TokenKindERC1155:
		amount, ok := new(big.Int).SetString(order.Amount, 10)
		if !ok {
			amount = big.NewInt(1)
		}
		balance, err := evmclient.Erc1155BalanceOf(ctx, client, contract, maker, tokenID)
		if err != nil {
			return err
		}
		hasBalance = balance.Cmp(amount) >= 0
	default:
		return ErrInvalidTarget
	}

	hasApproval, err := evmclient.IsApprovedForAll(ctx, client, contract, maker, operator)
	if err != nil {
		return err
	}
	if !hasApproval && opts.OnChainApprovalRecheck && tokenKind == model.TokenKindERC721 {
		// 全量授权缺失时单token授权仍可能成立
		approved, err := evmclient.Erc721GetApproved(ctx, client, contract, tokenID)
		if err == nil && approved == operator {
			hasApproval = true
		}
	}

	return combine(hasBalance, hasApproval)
}

func combine(hasBalance, hasApproval bool) error {
	switch {
	case !hasBalance && !hasApproval:
		return ErrNoBalanceNoApproval
	case !hasBalance:
		return ErrNoBalance
	case !hasApproval:
		return ErrNoApproval
	}
	return nil
}

func operatorFor(orderKind string, tokenKind model.TokenKind) common.Address {
	byToken, ok := operatorByKind[orderKind]
	if !ok {
		return common.Address{}
	}
	addr, ok := byToken[tokenKind]
	if !ok {
		return common.Address{}
	}
	return common.HexToAddress(addr)
}

// RecordMinNonce 批量取消事件落库后刷新缓存，供checkNonce即时可见
func (c *Checker) RecordMinNonce(ctx context.Context, orderKind, maker, minNonce string) {
	key := utils.MinNonceKey(orderKind, strings.ToLower(maker))
	if err := c.repo.GetRDB().Set(ctx, key, minNonce, time.Hour).Err(); err != nil {
		c.logger.Warn("failed to refresh min nonce cache",
			zap.String("maker", maker), zap.Error(err))
	}
}
