package scripts

import "context"

func init() {
	Register("deploy-airdrop", deployAirdrop)
}

// deployAirdrop deploys CryptoToken and then the Airdrop contract that
// distributes it. Airdrop is only sent once the token is confirmed.
func deployAirdrop(ctx context.Context, rt *Runtime) error {
	token, err := deploy(ctx, rt, "CryptoToken", initialSupply)
	if err != nil {
		return err
	}
	_, err = deploy(ctx, rt, "Airdrop", token)
	return err
}
