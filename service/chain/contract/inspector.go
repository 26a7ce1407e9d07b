package contract

import (
	"errors"
	"math/big"

	bCtx "github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/token"
	"github.com/vendue/goapi/service/chain"
)

// ErrReadOnly is returned by the state-changing token methods: the
// inspector holds no signer, it only proxies eth_call reads.
var ErrReadOnly = errors.New("chain inspector is read-only")

// Inspector adapts the raw contract wrappers to the marketplace's token
// capability interfaces for one chain. The sweeper runs its staleness
// probes through it; purchase settlement needs a transfer-capable
// implementation and cannot use it.
type Inspector struct {
	chainId int32
	erc721  *Erc721
	erc1155 *Erc1155
	erc2981 *Erc2981
}

func NewInspector(chainId int32, client chain.Client) *Inspector {
	return &Inspector{
		chainId: chainId,
		erc721:  NewErc721(client),
		erc1155: NewErc1155(client),
		erc2981: NewErc2981(client),
	}
}

var _ token.Detector = (*Inspector)(nil)

func (i *Inspector) SupportsErc721(c bCtx.Ctx, collection domain.Address) (bool, error) {
	return i.erc721.Supports721Interface(c, i.chainId, string(collection))
}

func (i *Inspector) SupportsErc1155(c bCtx.Ctx, collection domain.Address) (bool, error) {
	return i.erc1155.Supports1155Interface(c, i.chainId, string(collection))
}

func (i *Inspector) SupportsRoyalty(c bCtx.Ctx, collection domain.Address) (bool, error) {
	return i.erc2981.SupportsRoyaltyInterface(c, i.chainId, string(collection))
}

// Erc721View exposes the erc721 read surface plus a failing transfer.
func (i *Inspector) Erc721View() token.Erc721 {
	return &erc721View{i}
}

// Erc1155View exposes the erc1155 read surface plus a failing transfer.
func (i *Inspector) Erc1155View() token.Erc1155 {
	return &erc1155View{i}
}

// RoyaltyView exposes erc2981 royalty lookups.
func (i *Inspector) RoyaltyView() token.Royalty {
	return &royaltyView{i}
}

type erc721View struct{ i *Inspector }

func (v *erc721View) OwnerOf(c bCtx.Ctx, collection domain.Address, tokenId domain.TokenId) (domain.Address, error) {
	id, err := tokenId.Big()
	if err != nil {
		return "", err
	}
	owner, err := v.i.erc721.OwnerOf(c, v.i.chainId, string(collection), id)
	if err != nil {
		return "", err
	}
	return domain.Address(owner).ToLower(), nil
}

func (v *erc721View) GetApproved(c bCtx.Ctx, collection domain.Address, tokenId domain.TokenId) (domain.Address, error) {
	id, err := tokenId.Big()
	if err != nil {
		return "", err
	}
	approved, err := v.i.erc721.GetApproved(c, v.i.chainId, string(collection), id)
	if err != nil {
		return "", err
	}
	return domain.Address(approved).ToLower(), nil
}

func (v *erc721View) IsApprovedForAll(c bCtx.Ctx, collection, owner, operator domain.Address) (bool, error) {
	return v.i.erc721.IsApprovedForAll(c, v.i.chainId, string(collection), string(owner), string(operator))
}

func (v *erc721View) SafeTransferFrom(c bCtx.Ctx, collection, from, to domain.Address, tokenId domain.TokenId) error {
	return ErrReadOnly
}

type erc1155View struct{ i *Inspector }

func (v *erc1155View) BalanceOf(c bCtx.Ctx, collection, owner domain.Address, tokenId domain.TokenId) (int64, error) {
	id, err := tokenId.Big()
	if err != nil {
		return 0, err
	}
	bal, err := v.i.erc1155.BalanceOf(c, v.i.chainId, string(collection), string(owner), id)
	if err != nil {
		return 0, err
	}
	if !bal.IsInt64() {
		return 0, domain.ErrInvalidNumberFormat
	}
	return bal.Int64(), nil
}

func (v *erc1155View) IsApprovedForAll(c bCtx.Ctx, collection, owner, operator domain.Address) (bool, error) {
	return v.i.erc1155.IsApprovedForAll(c, v.i.chainId, string(collection), string(owner), string(operator))
}

func (v *erc1155View) SafeTransferFrom(c bCtx.Ctx, collection, from, to domain.Address, tokenId domain.TokenId, quantity int64) error {
	return ErrReadOnly
}

type royaltyView struct{ i *Inspector }

func (v *royaltyView) RoyaltyInfo(c bCtx.Ctx, collection domain.Address, tokenId domain.TokenId, salePrice *big.Int) (domain.Address, *big.Int, error) {
	id, err := tokenId.Big()
	if err != nil {
		return "", nil, err
	}
	receiver, amount, err := v.i.erc2981.RoyaltyInfo(c, v.i.chainId, string(collection), id, salePrice)
	if err != nil {
		return "", nil, err
	}
	return domain.Address(receiver).ToLower(), amount, nil
}
