package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	nativecommon "launchpad/native/common"
)

type methodHandler func(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError)

var errMissingParams = errors.New("params[0] object required")

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) == 0 {
		return errMissingParams
	}
	return json.Unmarshal(req.Params[0], out)
}

func requireCaller(r *http.Request) (string, *RPCError) {
	caller := CallerFromContext(r.Context())
	if caller == "" {
		return "", &RPCError{Code: codeUnauthorized, Message: "caller identity required"}
	}
	return caller, nil
}

func failed(err error) (interface{}, int, *RPCError) {
	status, rpcErr := ledgerError(err)
	return nil, status, rpcErr
}

func succeeded(result interface{}) (interface{}, int, *RPCError) {
	return result, http.StatusOK, nil
}

func (s *Server) methods() map[string]methodHandler {
	return map[string]methodHandler{
		"sale_create":                s.handleCreateSale,
		"sale_get":                   s.handleGetSale,
		"sale_list":                  s.handleListSales,
		"sale_deposit":               s.handleDeposit,
		"sale_getDeposit":            s.handleGetDeposit,
		"sale_listDeposits":          s.handleListDeposits,
		"sale_configureDistribution": s.handleConfigureDistribution,
		"sale_setClaimAvailable":     s.handleSetClaimAvailable,
		"sale_allocation":            s.handleAllocation,
		"sale_claim":                 s.handleClaim,
		"sale_affiliate":             s.handleAffiliate,
		"sale_claimAffiliate":        s.handleClaimAffiliate,
		"linkdrop_issue":             s.handleIssueLinkdrop,
		"linkdrop_redeem":            s.handleRedeemLinkdrop,
		"linkdrop_get":               s.handleGetLinkdrop,
		"referral_join":              s.handleJoin,
		"referral_referrerOf":        s.handleReferrerOf,
		"referral_list":              s.handleReferralsBy,
		"referral_count":             s.handleReferralCount,
		"fees_tierFee":               s.handleTierFee,
		"fees_reward":                s.handleReward,
		"ledger_params":              s.handleParams,
	}
}

type saleIDParams struct {
	SaleID uint64 `json:"saleId"`
}

type saleAccountParams struct {
	SaleID  uint64 `json:"saleId"`
	Account string `json:"account"`
}

type pageParams struct {
	SaleID uint64   `json:"saleId"`
	Page   PageJSON `json:"page"`
}

type depositParams struct {
	SaleID       uint64 `json:"saleId"`
	Amount       Amount `json:"amount"`
	NativeAmount Amount `json:"nativeAmount"`
}

type distributionParams struct {
	SaleID   uint64 `json:"saleId"`
	Token    string `json:"token"`
	Decimals uint8  `json:"decimals"`
}

type claimAvailabilityParams struct {
	SaleID    uint64 `json:"saleId"`
	Available bool   `json:"available"`
}

type issueParams struct {
	Token  string `json:"token"`
	Funded Amount `json:"funded"`
}

type redeemParams struct {
	Token   string `json:"token"`
	Account string `json:"account"`
}

type joinParams struct {
	Attached Amount `json:"attached"`
}

type accountParams struct {
	Account string   `json:"account"`
	Page    PageJSON `json:"page"`
}

type rewardParams struct {
	Referrer string `json:"referrer"`
	Amount   Amount `json:"amount"`
}

func (p PageJSON) page() nativecommon.Page {
	return nativecommon.Page{From: p.From, Limit: p.Limit}
}

func (s *Server) handleCreateSale(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	caller, rpcErr := requireCaller(r)
	if rpcErr != nil {
		return nil, http.StatusUnauthorized, rpcErr
	}
	var params TermsJSON
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid sale terms: %v", err)
	}
	id, err := s.engine.CreateSale(r.Context(), caller, params.terms())
	if err != nil {
		return failed(err)
	}
	return succeeded(map[string]uint64{"saleId": id})
}

func (s *Server) handleGetSale(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	var params saleIDParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	view, err := s.engine.SaleWithPhase(params.SaleID)
	if err != nil {
		return failed(err)
	}
	return succeeded(saleView(view.Sale, view.Phase))
}

func (s *Server) handleListSales(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	var params PageJSON
	if len(req.Params) > 0 {
		if err := decodeParams(req, &params); err != nil {
			return invalidParams("invalid page: %v", err)
		}
	}
	views, err := s.engine.ListSaleViews(params.page())
	if err != nil {
		return failed(err)
	}
	out := make([]SaleJSON, 0, len(views))
	for _, view := range views {
		out = append(out, saleView(view.Sale, view.Phase))
	}
	return succeeded(out)
}

func (s *Server) handleDeposit(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	caller, rpcErr := requireCaller(r)
	if rpcErr != nil {
		return nil, http.StatusUnauthorized, rpcErr
	}
	var params depositParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid deposit: %v", err)
	}
	cumulative, err := s.engine.Deposit(r.Context(), params.SaleID, caller, params.Amount.Big(), params.NativeAmount.Big())
	if err != nil {
		return failed(err)
	}
	return succeeded(map[string]Amount{"cumulative": {cumulative}})
}

func (s *Server) handleGetDeposit(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	var params saleAccountParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	amount, err := s.engine.GetDeposit(params.SaleID, params.Account)
	if err != nil {
		return failed(err)
	}
	return succeeded(map[string]Amount{"amount": {amount}})
}

func (s *Server) handleListDeposits(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	var params pageParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	deposits, err := s.engine.ListDeposits(params.SaleID, params.Page.page())
	if err != nil {
		return failed(err)
	}
	out := make([]DepositJSON, 0, len(deposits))
	for _, d := range deposits {
		out = append(out, DepositJSON{Account: d.Account, Amount: Amount{d.Amount}, Claimed: Amount{d.Claimed}})
	}
	return succeeded(out)
}

func (s *Server) handleConfigureDistribution(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	caller, rpcErr := requireCaller(r)
	if rpcErr != nil {
		return nil, http.StatusUnauthorized, rpcErr
	}
	var params distributionParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	if err := s.engine.ConfigureDistribution(r.Context(), caller, params.SaleID, params.Token, params.Decimals); err != nil {
		return failed(err)
	}
	return succeeded(true)
}

func (s *Server) handleSetClaimAvailable(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	caller, rpcErr := requireCaller(r)
	if rpcErr != nil {
		return nil, http.StatusUnauthorized, rpcErr
	}
	var params claimAvailabilityParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	if err := s.engine.SetClaimAvailable(r.Context(), caller, params.SaleID, params.Available); err != nil {
		return failed(err)
	}
	return succeeded(true)
}

func (s *Server) handleAllocation(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	var params saleAccountParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	amount, err := s.engine.Allocation(params.SaleID, params.Account)
	if err != nil {
		return failed(err)
	}
	return succeeded(map[string]Amount{"allocation": {amount}})
}

func (s *Server) handleClaim(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	caller, rpcErr := requireCaller(r)
	if rpcErr != nil {
		return nil, http.StatusUnauthorized, rpcErr
	}
	var params saleIDParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	amount, err := s.engine.ClaimPurchase(r.Context(), params.SaleID, caller)
	if err != nil {
		return failed(err)
	}
	return succeeded(map[string]Amount{"claimed": {amount}})
}

func (s *Server) handleAffiliate(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	var params saleAccountParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	record, err := s.engine.AffiliateReward(params.SaleID, params.Account)
	if err != nil {
		return failed(err)
	}
	return succeeded(AffiliateJSON{Account: record.Account, Amount: Amount{record.Amount}, Claimed: Amount{record.Claimed}})
}

func (s *Server) handleClaimAffiliate(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	caller, rpcErr := requireCaller(r)
	if rpcErr != nil {
		return nil, http.StatusUnauthorized, rpcErr
	}
	var params saleIDParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	amount, err := s.engine.ClaimAffiliateReward(r.Context(), params.SaleID, caller)
	if err != nil {
		return failed(err)
	}
	return succeeded(map[string]Amount{"claimed": {amount}})
}

func (s *Server) handleIssueLinkdrop(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	caller, rpcErr := requireCaller(r)
	if rpcErr != nil {
		return nil, http.StatusUnauthorized, rpcErr
	}
	var params issueParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	if err := s.engine.IssueLinkdrop(r.Context(), caller, params.Token, params.Funded.Big()); err != nil {
		return failed(err)
	}
	return succeeded(true)
}

// The token is the credential for redemption, so no caller is required.
func (s *Server) handleRedeemLinkdrop(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	var params redeemParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	edge, err := s.engine.RedeemLinkdrop(r.Context(), params.Token, params.Account)
	if err != nil {
		return failed(err)
	}
	return succeeded(edgeView(edge))
}

func (s *Server) handleGetLinkdrop(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	var params redeemParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	record, err := s.engine.GetLinkdrop(params.Token)
	if err != nil {
		return failed(err)
	}
	return succeeded(linkdropView(record))
}

func (s *Server) handleJoin(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	caller, rpcErr := requireCaller(r)
	if rpcErr != nil {
		return nil, http.StatusUnauthorized, rpcErr
	}
	var params joinParams
	if len(req.Params) > 0 {
		if err := decodeParams(req, &params); err != nil {
			return invalidParams("invalid params: %v", err)
		}
	}
	edge, err := s.engine.Join(r.Context(), caller, params.Attached.Big())
	if err != nil {
		return failed(err)
	}
	return succeeded(edgeView(edge))
}

func (s *Server) handleReferrerOf(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	edge, found, err := s.engine.ReferrerOf(params.Account)
	if err != nil {
		return failed(err)
	}
	out := ReferrerJSON{Found: found}
	if found {
		out.Edge = edgeView(edge)
	}
	return succeeded(out)
}

func (s *Server) handleReferralsBy(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	accounts, err := s.engine.ReferralsBy(params.Account, params.Page.page())
	if err != nil {
		return failed(err)
	}
	return succeeded(accounts)
}

func (s *Server) handleReferralCount(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	count, err := s.engine.ReferralCount(params.Account)
	if err != nil {
		return failed(err)
	}
	return succeeded(map[string]uint64{"count": count})
}

func (s *Server) handleTierFee(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	fee, err := s.engine.TierFee(params.Account)
	if err != nil {
		return failed(err)
	}
	return succeeded(map[string]uint64{"fee": fee})
}

func (s *Server) handleReward(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	var params rewardParams
	if err := decodeParams(req, &params); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	reward, fee, err := s.engine.Reward(params.Referrer, params.Amount.Big())
	if err != nil {
		return failed(err)
	}
	return succeeded(RewardJSON{Fee: fee, Reward: Amount{reward}})
}

func (s *Server) handleParams(r *http.Request, req *RPCRequest) (interface{}, int, *RPCError) {
	params := s.engine.Params()
	return succeeded(map[string]interface{}{
		"owner":        params.Owner,
		"joinFee":      Amount{params.JoinFee},
		"referralFees": params.ReferralFees,
		"defaultFee":   params.DefaultFee,
	})
}
