/*
Package system implements the native program owning all accounts that do
not hold program data. It moves lamports between accounts, creates new
accounts and assigns them to other programs.

Instructions are encoded the same way as on Solana so that clients can use
the builders of github.com/gagliardetto/solana-go/programs/system.
*/
package system
