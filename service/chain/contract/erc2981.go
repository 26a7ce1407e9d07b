package contract

import (
	"math/big"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	baseabi "github.com/vendue/goapi/base/abi"
	bCtx "github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/service/chain"
)

type Erc2981 struct {
	chainService       chain.Client
	abi                ethabi.ABI
	erc2981InterfaceId [4]byte
}

func NewErc2981(chainService chain.Client) *Erc2981 {
	var interfaceId [4]byte
	copy(interfaceId[:], common.Hex2Bytes("2a55205a"))
	return &Erc2981{
		abi:                baseabi.ERC2981RoyaltyABI,
		chainService:       chainService,
		erc2981InterfaceId: interfaceId,
	}
}

func (e *Erc2981) SupportsRoyaltyInterface(ctx bCtx.Ctx, chainId int32, addr string) (bool, error) {
	method := "supportsInterface"
	unpacked, err := e.chainService.Call(ctx, chainId, common.HexToAddress(addr), nil, e.abi, method, e.erc2981InterfaceId)
	if err != nil {
		return false, err
	}
	return unpacked[0].(bool), nil
}

func (e *Erc2981) RoyaltyInfo(ctx bCtx.Ctx, chainId int32, addr string, tokenId, salePrice *big.Int) (string, *big.Int, error) {
	method := "royaltyInfo"
	unpacked, err := e.chainService.Call(ctx, chainId, common.HexToAddress(addr), nil, e.abi, method, tokenId, salePrice)
	if err != nil {
		return "", nil, err
	}
	return unpacked[0].(common.Address).String(), unpacked[1].(*big.Int), nil
}
