package redis

const (
	// putRecordsScript writes every record and bumps the meta hash in one step
	putRecordsScript = `
local meta_key = KEYS[1]        -- {prefix}:meta
local updated_at = ARGV[1]

-- KEYS[i] / ARGV[i] pairs from index 2 are record keys and their values
for i = 2, #KEYS do
  redis.call('SET', KEYS[i], ARGV[i])
end

local revision = redis.call('HINCRBY', meta_key, 'revision', 1)
redis.call('HSET', meta_key, 'updated_at', updated_at)

return revision
`

	// deleteRecordScript removes a record and bumps the meta hash when it existed
	deleteRecordScript = `
local record_key = KEYS[1]      -- {prefix}:record:{key}
local meta_key = KEYS[2]        -- {prefix}:meta
local updated_at = ARGV[1]

local removed = redis.call('DEL', record_key)
if removed == 0 then
  return 0
end

redis.call('HINCRBY', meta_key, 'revision', 1)
redis.call('HSET', meta_key, 'updated_at', updated_at)

return removed
`
)
