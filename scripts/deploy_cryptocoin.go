package scripts

import "context"

// initialSupply is the constructor argument of both token contracts.
const initialSupply = 1000

func init() {
	Register("deploy-cryptoCoin", deployCryptoCoin)
}

// deployCryptoCoin deploys the standalone CryptoCoin token.
func deployCryptoCoin(ctx context.Context, rt *Runtime) error {
	_, err := deploy(ctx, rt, "CryptoCoin", initialSupply)
	return err
}
