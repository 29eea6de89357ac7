package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/sha3"
)

// Chain event feed: a poller tails the savings contract's Deposited and
// Withdrawn events into a persisted log, deduplicated by transaction
// hash, and optionally imports them into the ledger as transactions.

const (
	defaultPollInterval = 10 * time.Second
	maxBlockRange       = 500
)

// ChainClient is the contract surface the backend consumes
type ChainClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterEvents(ctx context.Context, fromBlock, toBlock uint64) ([]ChainEvent, error)
	BalanceOf(ctx context.Context, address string) (string, error)
}

// keccakHash returns the 0x-prefixed keccak256 of data
func keccakHash(data []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

var (
	depositedTopic = keccakHash([]byte("Deposited(address,uint256,uint256)"))
	withdrawnTopic = keccakHash([]byte("Withdrawn(address,uint256,uint256)"))
	// First 4 bytes of the method hash
	balanceOfSelector = keccakHash([]byte("balanceOf(address)"))[:10]
)

// JSON-RPC plumbing

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcLog struct {
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	BlockNumber     string   `json:"blockNumber"`
	TransactionHash string   `json:"transactionHash"`
}

// rpcChainClient talks to an Ethereum JSON-RPC endpoint
type rpcChainClient struct {
	url      string
	contract string
	client   *http.Client
}

func newRPCChainClient(url, contract string) *rpcChainClient {
	return &rpcChainClient{
		url:      url,
		contract: contract,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *rpcChainClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode RPC response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return json.Unmarshal(rpcResp.Result, result)
}

func parseHexUint(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}

func hexBlock(n uint64) string {
	return "0x" + strconv.FormatUint(n, 16)
}

// weiToEther formats a wei amount as a decimal ether string
func weiToEther(wei *big.Int) string {
	r := new(big.Rat).SetFrac(wei, big.NewInt(1e18))
	s := strings.TrimRight(r.FloatString(18), "0")
	return strings.TrimSuffix(s, ".")
}

func (c *rpcChainClient) BlockNumber(ctx context.Context) (uint64, error) {
	var result string
	if err := c.call(ctx, "eth_blockNumber", nil, &result); err != nil {
		return 0, err
	}
	return parseHexUint(result)
}

func (c *rpcChainClient) BalanceOf(ctx context.Context, address string) (string, error) {
	data := balanceOfSelector + strings.Repeat("0", 24) + strings.ToLower(strings.TrimPrefix(address, "0x"))
	params := []interface{}{
		map[string]string{"to": c.contract, "data": data},
		"latest",
	}

	var result string
	if err := c.call(ctx, "eth_call", params, &result); err != nil {
		return "", err
	}

	wei, ok := new(big.Int).SetString(strings.TrimPrefix(result, "0x"), 16)
	if !ok {
		return "", fmt.Errorf("invalid balance result %q", result)
	}
	return weiToEther(wei), nil
}

// FilterEvents fetches Deposited and Withdrawn logs for a block range,
// decoded and ordered by block number
func (c *rpcChainClient) FilterEvents(ctx context.Context, fromBlock, toBlock uint64) ([]ChainEvent, error) {
	type rawEvent struct {
		event ChainEvent
		block uint64
	}
	var raw []rawEvent

	for topic, eventType := range map[string]EventType{
		depositedTopic: EventDeposited,
		withdrawnTopic: EventWithdrawn,
	} {
		params := []interface{}{map[string]interface{}{
			"address":   c.contract,
			"fromBlock": hexBlock(fromBlock),
			"toBlock":   hexBlock(toBlock),
			"topics":    []string{topic},
		}}

		var logs []rpcLog
		if err := c.call(ctx, "eth_getLogs", params, &logs); err != nil {
			return nil, err
		}

		for _, lg := range logs {
			event, block, err := decodeEventLog(lg, eventType)
			if err != nil {
				log.Printf("Skipping undecodable %s log %s: %v", eventType, lg.TransactionHash, err)
				continue
			}
			raw = append(raw, rawEvent{event: event, block: block})
		}
	}

	sort.Slice(raw, func(i, j int) bool { return raw[i].block < raw[j].block })

	events := make([]ChainEvent, 0, len(raw))
	for _, r := range raw {
		events = append(events, r.event)
	}
	return events, nil
}

// decodeEventLog unpacks user (indexed), amount and timestamp from a
// Deposited/Withdrawn log
func decodeEventLog(lg rpcLog, eventType EventType) (ChainEvent, uint64, error) {
	if len(lg.Topics) < 2 {
		return ChainEvent{}, 0, errors.New("missing indexed user topic")
	}
	userTopic := strings.TrimPrefix(lg.Topics[1], "0x")
	if len(userTopic) != 64 {
		return ChainEvent{}, 0, fmt.Errorf("malformed user topic %q", lg.Topics[1])
	}
	user := "0x" + userTopic[24:]

	data := strings.TrimPrefix(lg.Data, "0x")
	if len(data) < 128 {
		return ChainEvent{}, 0, fmt.Errorf("event data too short (%d chars)", len(data))
	}

	amount, ok := new(big.Int).SetString(data[:64], 16)
	if !ok {
		return ChainEvent{}, 0, errors.New("invalid amount word")
	}
	timestamp, err := strconv.ParseInt(data[64:128], 16, 64)
	if err != nil {
		return ChainEvent{}, 0, fmt.Errorf("invalid timestamp word: %w", err)
	}

	block, err := parseHexUint(lg.BlockNumber)
	if err != nil {
		return ChainEvent{}, 0, fmt.Errorf("invalid block number: %w", err)
	}

	return ChainEvent{
		Type:            eventType,
		User:            user,
		Amount:          weiToEther(amount),
		Timestamp:       time.Unix(timestamp, 0).UTC(),
		TransactionHash: lg.TransactionHash,
	}, block, nil
}

// Event log persistence

func (l *Ledger) loadEvents(ctx context.Context) ([]ChainEvent, error) {
	var events []ChainEvent
	if err := l.store.Get(ctx, eventsKey, &events); err != nil {
		if errors.Is(err, errKeyNotFound) {
			return []ChainEvent{}, nil
		}
		return nil, err
	}
	if events == nil {
		events = []ChainEvent{}
	}
	return events, nil
}

// RecordChainEvents appends events to the persisted log, dropping any
// whose transaction hash is already recorded. Returns the newly stored
// events.
func (l *Ledger) RecordChainEvents(ctx context.Context, events []ChainEvent) ([]ChainEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored, err := l.loadEvents(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(stored))
	for _, ev := range stored {
		seen[ev.TransactionHash] = true
	}

	added := []ChainEvent{}
	for _, ev := range events {
		if seen[ev.TransactionHash] {
			continue
		}
		seen[ev.TransactionHash] = true
		stored = append(stored, ev)
		added = append(added, ev)
	}

	if len(added) > 0 {
		if err := l.store.Set(ctx, eventsKey, stored); err != nil {
			return nil, err
		}
	}
	return added, nil
}

// ChainEventsByUser returns the stored events for one address, newest
// first
func (l *Ledger) ChainEventsByUser(ctx context.Context, address string) ([]ChainEvent, error) {
	events, err := l.loadEvents(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]ChainEvent, 0, len(events))
	for _, ev := range events {
		if strings.EqualFold(ev.User, address) {
			matched = append(matched, ev)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp.After(matched[j].Timestamp) })
	return matched, nil
}

// ImportChainEvent maps a chain event into a ledger transaction against
// a goal. Returns false when a transaction with the same tx hash already
// exists.
func (l *Ledger) ImportChainEvent(ctx context.Context, ev ChainEvent, goalID string) (Transaction, bool, error) {
	transactions, err := l.loadTransactions(ctx)
	if err != nil {
		return Transaction{}, false, err
	}
	for _, tx := range transactions {
		if tx.TxHash != "" && strings.EqualFold(tx.TxHash, ev.TransactionHash) {
			return Transaction{}, false, nil
		}
	}

	amount, err := strconv.ParseFloat(ev.Amount, 64)
	if err != nil {
		return Transaction{}, false, invalidf("invalid event amount %q", ev.Amount)
	}

	tx := Transaction{
		GoalID:      goalID,
		Amount:      amount,
		Date:        ev.Timestamp,
		Type:        TypeDeposit,
		Description: "On-chain deposit",
		TxHash:      ev.TransactionHash,
	}
	if ev.Type == EventWithdrawn {
		tx.Type = TypeWithdrawal
		tx.Description = "On-chain withdrawal"
	}

	created, err := l.CreateTransaction(ctx, tx)
	if err != nil {
		return Transaction{}, false, err
	}
	return created, true, nil
}

// Poller

// Poller tails contract events into the ledger's event log on a fixed
// interval, querying at most maxBlockRange blocks per pass in chunks.
type Poller struct {
	client    ChainClient
	ledger    *Ledger
	interval  time.Duration
	lastBlock uint64
	// watched maps a lowercased address to the goal its events fund
	watched map[string]string
}

func newPoller(client ChainClient, ledger *Ledger, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		client:   client,
		ledger:   ledger,
		interval: interval,
		watched:  make(map[string]string),
	}
}

// Watch maps an address's chain events onto a goal
func (p *Poller) Watch(address, goalID string) {
	p.watched[strings.ToLower(address)] = goalID
}

// Start polls until the context is cancelled
func (p *Poller) Start(ctx context.Context) {
	log.Printf("Event poller started (interval %s)", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Println("Event poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	current, err := p.client.BlockNumber(ctx)
	if err != nil {
		log.Printf("Error fetching block number: %v", err)
		return
	}
	if current <= p.lastBlock {
		return
	}

	fromBlock := p.lastBlock
	if current > maxBlockRange && fromBlock < current-maxBlockRange {
		fromBlock = current - maxBlockRange
	}

	events := p.eventsInChunks(ctx, fromBlock, current)

	added, err := p.ledger.RecordChainEvents(ctx, events)
	if err != nil {
		// Keep lastBlock so the next pass re-reads this range
		log.Printf("Error recording chain events: %v", err)
		return
	}
	p.lastBlock = current

	for _, ev := range added {
		log.Printf("%s: %s %s ETH at %s", ev.Type, ev.User, ev.Amount, ev.Timestamp.Format(time.RFC3339))

		goalID, ok := p.watched[strings.ToLower(ev.User)]
		if !ok {
			continue
		}
		if _, imported, err := p.ledger.ImportChainEvent(ctx, ev, goalID); err != nil {
			log.Printf("Error importing event %s: %v", ev.TransactionHash, err)
		} else if imported {
			log.Printf("Imported event %s into goal %s", ev.TransactionHash, goalID)
		}
	}
}

// eventsInChunks walks the block range in maxBlockRange slices. A failed
// chunk is logged and skipped so one bad range does not stall the rest.
func (p *Poller) eventsInChunks(ctx context.Context, fromBlock, toBlock uint64) []ChainEvent {
	var events []ChainEvent
	for from := fromBlock; from < toBlock; from += maxBlockRange {
		to := from + maxBlockRange - 1
		if to > toBlock {
			to = toBlock
		}
		chunk, err := p.client.FilterEvents(ctx, from, to)
		if err != nil {
			log.Printf("Error fetching events from block %d to %d: %v", from, to, err)
			continue
		}
		events = append(events, chunk...)
	}
	return events
}

// Chain handler functions

// @Summary Contract balance
// @Description Get the savings contract balance for an address
// @Tags chain
// @Produce json
// @Param address path string true "Ethereum address"
// @Success 200 {object} map[string]interface{} "Address and balance"
// @Failure 400 {object} map[string]interface{} "Invalid address"
// @Failure 502 {object} map[string]interface{} "Chain unreachable"
// @Router /api/balance/{address} [get]
func getBalance(c *gin.Context) {
	if chainClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Chain client not configured"})
		return
	}

	address := c.Param("address")
	balance, err := chainClient.BalanceOf(c.Request.Context(), address)
	if err != nil {
		log.Printf("Error fetching balance: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Error fetching balance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "balance": balance})
}

// @Summary Address events
// @Description Get the recorded deposit/withdrawal events for an address, newest first
// @Tags chain
// @Produce json
// @Param address path string true "Ethereum address"
// @Success 200 {array} ChainEvent
// @Failure 400 {object} map[string]interface{} "Invalid address"
// @Router /api/events/{address} [get]
func getEvents(c *gin.Context) {
	events, err := ledger.ChainEventsByUser(c.Request.Context(), c.Param("address"))
	if err != nil {
		log.Printf("Error fetching events: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching events"})
		return
	}
	c.JSON(http.StatusOK, events)
}

// @Summary Health check
// @Description Report storage and chain reachability
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Health status"
// @Router /api/health [get]
func healthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	var goals []SavingsGoal
	if err := ledger.store.Get(ctx, goalsKey, &goals); err != nil && !errors.Is(err, errKeyNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	chain := "disabled"
	if chainClient != nil {
		if _, err := chainClient.BlockNumber(ctx); err != nil {
			chain = "unreachable"
		} else {
			chain = "connected"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "savings-tracker",
		"chain":   chain,
	})
}
