package multisig

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// walletAuthority returns the wallet account of an administrative
// instruction. The wallet can sign only through an executed transaction.
func walletAuthority(env quorum.Env) (*quorum.AccountInfo, *Wallet, error) {
	accounts, err := requireAccounts(env, 1)
	if err != nil {
		return nil, nil, err
	}
	acc := accounts[0]
	if !acc.IsSigner {
		return nil, nil, errors.Wrapf(errors.ErrUnauthorized, "wallet %s must sign", acc.Key)
	}
	if !acc.IsWritable {
		return nil, nil, errors.Wrapf(errors.ErrUnauthorized, "wallet %s must be writable", acc.Key)
	}
	wallet, err := loadWallet(acc)
	if err != nil {
		return nil, nil, err
	}
	return acc, wallet, nil
}

func (h Handler) changeThreshold(env quorum.Env, msg *ChangeThresholdMsg) error {
	acc, wallet, err := walletAuthority(env)
	if err != nil {
		return err
	}
	if msg.Threshold == 0 || int(msg.Threshold) > len(wallet.Members) {
		return errors.Wrapf(ErrInvalidThreshold, "threshold %d, %d members", msg.Threshold, len(wallet.Members))
	}
	wallet.Threshold = msg.Threshold
	return writeEntity(acc.Data, wallet)
}

func (h Handler) changeMembers(db quorum.ReadOnlyKVStore, env quorum.Env, msg *ChangeMembersMsg) error {
	acc, wallet, err := walletAuthority(env)
	if err != nil {
		return err
	}
	if err := checkUnique(msg.Members); err != nil {
		return err
	}
	if len(msg.Members) < int(wallet.Threshold) {
		return errors.Wrapf(ErrTooFewMembers, "%d members, threshold %d", len(msg.Members), wallet.Threshold)
	}
	conf, err := loadConfiguration(db)
	if err != nil {
		return err
	}
	if len(msg.Members) > int(conf.MaxMembers) {
		return errors.Wrapf(errors.ErrInput, "%d members, at most %d allowed", len(msg.Members), conf.MaxMembers)
	}
	if wallet.MemberSetSeqno+1 < wallet.MemberSetSeqno {
		return errors.Wrap(errors.ErrOverflow, "member set seqno")
	}

	space := WalletSpace(len(msg.Members))
	if min := env.MinimumBalance(space); acc.Lamports < min {
		return errors.Wrapf(errors.ErrInsufficientAmount,
			"wallet %s holds %d lamports, %d required for %d members", acc.Key, acc.Lamports, min, len(msg.Members))
	}
	wallet.Members = msg.Members
	wallet.MemberSetSeqno++
	acc.Resize(space)
	return writeEntity(acc.Data, wallet)
}
