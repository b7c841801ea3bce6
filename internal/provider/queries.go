package provider

import "liquidity-bands/internal/domain"

// GraphQL documents for the three upstream capabilities. Shared filters: the
// position manager contract and the tracked WETH/USDT addresses.

const mintCallsQuery = `query Positions($startDate: DateTime!, $endDate: DateTime!) {
  EVM(dataset: archive, network: eth) {
    Calls(
      where: {Call: {Signature: {Name: {is: "` + domain.SignatureMint + `"}}, To: {is: "` + domain.PositionManagerAddress + `"}}, Arguments: {includes: {Value: {Address: {in: ["` + domain.WETHAddress + `", "` + domain.USDTAddress + `"]}}}}, Block: {Time: {since: $startDate, till: $endDate}}}
      limit: {count: 10000}
      orderBy: {descending: Block_Number}
    ) {
      Arguments {
        Index
        Name
        Value {
          ... on EVM_ABI_Address_Value_Arg { address }
          ... on EVM_ABI_BigInt_Value_Arg { bigInteger }
        }
      }
      Call { Signature { Name } }
      Transaction { Time }
      Block { Time }
      Returns {
        Name
        Value {
          ... on EVM_ABI_BigInt_Value_Arg { bigInteger }
          ... on EVM_ABI_Address_Value_Arg { address }
        }
      }
    }
  }
}`

const liquidityCallsQuery = `query LiquidityCalls($nftIds: [String!], $startDate: DateTime!, $endDate: DateTime!) {
  EVM(dataset: archive, network: eth) {
    Calls(
      orderBy: {descending: Block_Number}
      where: {
        Call: {
          Signature: {Name: {in: ["` + domain.SignatureIncreaseLiquidity + `", "` + domain.SignatureDecreaseLiquidity + `"]}}
          To: {is: "` + domain.PositionManagerAddress + `"}
        }
        Arguments: {includes: {Value: {BigInteger: {in: $nftIds}}}}
        Block: {Time: {since: $startDate, till: $endDate}}
      }
      limit: {count: 10000}
    ) {
      Arguments {
        Index
        Name
        Value {
          ... on EVM_ABI_Address_Value_Arg { address }
          ... on EVM_ABI_BigInt_Value_Arg { bigInteger }
        }
      }
      Call { Signature { Name } }
      Transaction { Time }
      Block { Time }
      Returns {
        Name
        Value {
          ... on EVM_ABI_BigInt_Value_Arg { bigInteger }
          ... on EVM_ABI_Address_Value_Arg { address }
        }
      }
    }
  }
}`

const tradingVolumeQuery = `query TradingVolume($priceLow: Float, $priceHigh: Float, $startDate: DateTime!, $endDate: DateTime!) {
  EVM(network: eth, dataset: archive) {
    DEXTradeByTokens(
      where: {
        Trade: {
          Currency: {SmartContract: {is: "` + domain.WETHAddress + `"}}
          Side: {Currency: {SmartContract: {is: "` + domain.USDTAddress + `"}}}
          Dex: {ProtocolFamily: {is: "Uniswap"}}
          PriceInUSD: {ge: $priceLow, le: $priceHigh}
        }
        Block: {Time: {since: $startDate, till: $endDate}}
        TransactionStatus: {Success: true}
      }
    ) {
      volume: sum(of: Trade_AmountInUSD)
    }
  }
}`
