/*
Package multisig implements an M-of-N threshold authorization program.

> Multisignature (multi-signature) is a digital signature scheme which allows a group of users to sign a single document.
https://en.wikipedia.org/wiki/Multisignature

A Wallet is an account owned by the program, holding a set of member keys
and a threshold. Its address is derived from a base key, so the program can
sign on behalf of the wallet when invoking other programs.

Any member can propose a Transaction: a list of instructions stored in a
new account derived from the wallet address and its transaction nonce.
Members approve or unapprove the proposal. Once the number of approvals
reaches the threshold, any member can execute it and the instructions are
issued with the wallet as a signer. A transaction executes at most once.

The wallet configuration (threshold and members) can only be changed by
the wallet itself, that is by executing a transaction holding a
ChangeThreshold or ChangeMembers instruction. Changing members increments
the member set sequence number, which makes all outstanding proposals
unusable.

An Initializer can be used to define wallets in the genesis file. The
Client bundles a member key with a ledger to build and send all
instructions.
*/
package multisig
